// Package service provides business logic for the REST API.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/remiblancher/qcert/internal/api/dto"
	"github.com/remiblancher/qcert/internal/api/metrics"
	"github.com/remiblancher/qcert/internal/api/middleware"
	"github.com/remiblancher/qcert/internal/audit"
	"github.com/remiblancher/qcert/internal/cert"
	"github.com/remiblancher/qcert/internal/codec"
	"github.com/remiblancher/qcert/internal/x509util"
)

// CertService serves one installed certificate. A cert.Manager is not
// safe for concurrent use, so every call holds mu.
type CertService struct {
	mu       sync.Mutex
	mgr      *cert.Manager
	certFile string
	keyFile  string
	metrics  *metrics.Store
	now      func() time.Time
}

// NewCertService loads the certificate and key the service will serve.
func NewCertService(certFile, keyFile string, store *metrics.Store, opts ...cert.Option) (*CertService, error) {
	s := &CertService{
		mgr:      cert.NewManager(opts...),
		certFile: certFile,
		keyFile:  keyFile,
		metrics:  store,
		now:      time.Now,
	}

	err := s.mgr.Load(certFile, keyFile)
	if auditErr := audit.LogCertLoaded(audit.RecordDetails(certFile, s.mgr.Record()), err); auditErr != nil {
		return nil, auditErr
	}
	if err != nil {
		s.metrics.OperationErrorCount.WithLabelValues("load").Inc()
		return nil, err
	}

	s.observe()
	return s, nil
}

// Info returns the certificate description.
func (s *CertService) Info(ctx context.Context) (*dto.CertificateInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.info(), nil
}

// PEM returns the PEM-encoded certificate.
func (s *CertService) PEM(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.mgr.Signed() {
		return nil, &cert.Error{Op: "pem", Err: cert.ErrNotSigned}
	}
	return codec.New().EncodeCertificatePEM(s.mgr.Certificate())
}

// Renew renews the certificate and writes it back to its files.
func (s *CertService) Renew(ctx context.Context, req *dto.RenewRequest) (*dto.CertificateInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var validFor *int
	if req != nil {
		validFor = req.ValidFor
	}

	err := s.mgr.Renew(validFor)
	if err == nil {
		err = s.mgr.Save("", s.certFile, s.keyFile)
	}

	event := audit.CertEvent(audit.EventCertRenewed, audit.RecordDetails(s.certFile, s.mgr.Record()), err)
	event.Actor.Type = "service"
	event.Context.RequestID = middleware.GetRequestID(ctx)
	if auditErr := audit.MustLog(event); auditErr != nil {
		return nil, auditErr
	}

	if err != nil {
		s.metrics.OperationErrorCount.WithLabelValues("renew").Inc()
		return nil, err
	}

	s.metrics.RenewalCount.Inc()
	s.observe()
	return s.info(), nil
}

func (s *CertService) observe() {
	r := s.mgr.Record()
	s.metrics.ObserveCertificate(r.SerialNumber.Int64(), r.NotAfter, s.now())
}

func (s *CertService) info() *dto.CertificateInfo {
	return CertificateInfo(s.mgr.Record(), s.mgr.State(), s.mgr.KeyPair().Algorithm.String(), s.now())
}

// CertificateInfo converts a record to its API form.
func CertificateInfo(r cert.Record, state cert.State, keyAlgorithm string, now time.Time) *dto.CertificateInfo {
	info := &dto.CertificateInfo{
		Subject: attributes(r.Subject.Attributes()),
		Issuer:  attributes(r.Issuer.Attributes()),
		Validity: dto.ValidityInfo{
			NotBefore: r.NotBefore.UTC().Format(time.RFC3339),
			NotAfter:  r.NotAfter.UTC().Format(time.RFC3339),
		},
		ValidForSeconds:    r.ValiditySeconds(),
		SignatureAlgorithm: r.SignatureAlgorithm.String(),
		KeyAlgorithm:       keyAlgorithm,
		State:              state.String(),
		Expired:            now.After(r.NotAfter),
	}
	if r.SerialNumber != nil {
		info.Serial = r.SerialNumber.String()
	}
	for _, ext := range r.Extensions {
		info.Extensions = append(info.Extensions, dto.ExtensionInfo{
			Name:     ext.Name,
			Critical: ext.Critical,
			Value:    ext.Value,
		})
	}
	return info
}

func attributes(attrs []x509util.Attribute) []dto.AttributeInfo {
	out := make([]dto.AttributeInfo, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, dto.AttributeInfo{Name: a.Label(), Value: a.Value})
	}
	return out
}

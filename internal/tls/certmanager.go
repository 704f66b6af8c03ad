package tls

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/caddyserver/certmagic"
)

// CertManager serves the frontend over HTTPS with certificates obtained
// automatically for a single configured domain.
type CertManager struct {
	domain string
	logger *slog.Logger
	cfg    *certmagic.Config
}

// NewCertManager creates a CertManager for domain. Outside production the
// Let's Encrypt staging CA is used.
func NewCertManager(domain, email string, production bool, logger *slog.Logger) *CertManager {
	certmagic.DefaultACME.Email = email
	certmagic.DefaultACME.Agreed = true
	if !production {
		certmagic.DefaultACME.CA = certmagic.LetsEncryptStagingCA
	}

	cfg := certmagic.NewDefault()
	cm := &CertManager{domain: strings.ToLower(domain), logger: logger, cfg: cfg}
	cfg.OnDemand = &certmagic.OnDemandConfig{
		DecisionFunc: cm.allowCert,
	}
	return cm
}

// allowCert only lets on-demand issuance through for the configured domain.
func (cm *CertManager) allowCert(_ context.Context, name string) error {
	if !strings.EqualFold(name, cm.domain) {
		return fmt.Errorf("unknown domain: %s", name)
	}
	return nil
}

// Listen manages the domain's certificate and returns a TLS listener on the
// HTTPS port.
func (cm *CertManager) Listen(ctx context.Context) (net.Listener, error) {
	cm.logger.Info("starting TLS server", "domain", cm.domain)

	if err := cm.cfg.ManageSync(ctx, []string{cm.domain}); err != nil {
		return nil, fmt.Errorf("manage domain: %w", err)
	}

	tlsCfg := cm.cfg.TLSConfig()
	tlsCfg.NextProtos = append([]string{"h2", "http/1.1"}, tlsCfg.NextProtos...)
	ln, err := tls.Listen("tcp", fmt.Sprintf(":%d", certmagic.HTTPSPort), tlsCfg)
	if err != nil {
		return nil, fmt.Errorf("tls listen: %w", err)
	}

	cm.logger.Info("serving HTTPS", "port", certmagic.HTTPSPort)
	return ln, nil
}

// RedirectHandler answers ACME HTTP challenges and redirects everything else
// to HTTPS.
func (cm *CertManager) RedirectHandler() http.Handler {
	redirect := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		target := "https://" + cm.domain + r.URL.RequestURI()
		http.Redirect(w, r, target, http.StatusMovedPermanently)
	})
	if len(cm.cfg.Issuers) > 0 {
		if am, ok := cm.cfg.Issuers[0].(*certmagic.ACMEIssuer); ok {
			return am.HTTPChallengeHandler(redirect)
		}
	}
	return redirect
}

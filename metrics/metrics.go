// Package metrics instruments an authstore.Adapter with Prometheus metrics.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/TeraWattHour/go-authstore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	resultOK     = "ok"
	resultAbsent = "absent"
	resultError  = "error"
)

// Adapter forwards every call to the wrapped adapter and records its outcome
// and latency.
type Adapter struct {
	next authstore.Adapter

	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

var _ authstore.Adapter = (*Adapter)(nil)

// Instrument wraps next and registers the collectors on reg.
func Instrument(next authstore.Adapter, reg prometheus.Registerer) *Adapter {
	a := &Adapter{
		next: next,
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authstore_operations_total",
			Help: "Adapter operations by outcome (ok, absent, error).",
		}, []string{"operation", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "authstore_operation_duration_seconds",
			Help:    "Adapter operation latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	reg.MustRegister(a.operations, a.duration)

	return a
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func (a *Adapter) record(operation string, start time.Time, result string) {
	a.duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	a.operations.WithLabelValues(operation, result).Inc()
}

func observe[T any](a *Adapter, operation string, fn func() (*T, error)) (*T, error) {
	start := time.Now()
	v, err := fn()

	switch {
	case err != nil:
		a.record(operation, start, resultError)
	case v == nil:
		a.record(operation, start, resultAbsent)
	default:
		a.record(operation, start, resultOK)
	}

	return v, err
}

func (a *Adapter) observeErr(operation string, fn func() error) error {
	start := time.Now()
	err := fn()

	result := resultOK
	if err != nil {
		result = resultError
	}
	a.record(operation, start, result)

	return err
}

func (a *Adapter) CreateUser(ctx context.Context, user authstore.User) (*authstore.User, error) {
	return observe(a, "create_user", func() (*authstore.User, error) { return a.next.CreateUser(ctx, user) })
}

func (a *Adapter) GetUser(ctx context.Context, id string) (*authstore.User, error) {
	return observe(a, "get_user", func() (*authstore.User, error) { return a.next.GetUser(ctx, id) })
}

func (a *Adapter) GetUserByEmail(ctx context.Context, email string) (*authstore.User, error) {
	return observe(a, "get_user_by_email", func() (*authstore.User, error) { return a.next.GetUserByEmail(ctx, email) })
}

func (a *Adapter) GetUserByAccount(ctx context.Context, provider string, providerAccountID string) (*authstore.User, error) {
	return observe(a, "get_user_by_account", func() (*authstore.User, error) {
		return a.next.GetUserByAccount(ctx, provider, providerAccountID)
	})
}

func (a *Adapter) UpdateUser(ctx context.Context, patch authstore.UserPatch) (*authstore.User, error) {
	return observe(a, "update_user", func() (*authstore.User, error) { return a.next.UpdateUser(ctx, patch) })
}

func (a *Adapter) DeleteUser(ctx context.Context, id string) error {
	return a.observeErr("delete_user", func() error { return a.next.DeleteUser(ctx, id) })
}

func (a *Adapter) LinkAccount(ctx context.Context, account authstore.Account) (*authstore.Account, error) {
	return observe(a, "link_account", func() (*authstore.Account, error) { return a.next.LinkAccount(ctx, account) })
}

func (a *Adapter) UnlinkAccount(ctx context.Context, provider string, providerAccountID string) error {
	return a.observeErr("unlink_account", func() error { return a.next.UnlinkAccount(ctx, provider, providerAccountID) })
}

func (a *Adapter) GetSessionAndUser(ctx context.Context, sessionToken string) (*authstore.SessionAndUser, error) {
	return observe(a, "get_session_and_user", func() (*authstore.SessionAndUser, error) {
		return a.next.GetSessionAndUser(ctx, sessionToken)
	})
}

func (a *Adapter) CreateSession(ctx context.Context, session authstore.Session) (*authstore.Session, error) {
	return observe(a, "create_session", func() (*authstore.Session, error) { return a.next.CreateSession(ctx, session) })
}

func (a *Adapter) UpdateSession(ctx context.Context, patch authstore.SessionPatch) (*authstore.Session, error) {
	return observe(a, "update_session", func() (*authstore.Session, error) { return a.next.UpdateSession(ctx, patch) })
}

func (a *Adapter) DeleteSession(ctx context.Context, sessionToken string) error {
	return a.observeErr("delete_session", func() error { return a.next.DeleteSession(ctx, sessionToken) })
}

func (a *Adapter) CreateVerificationToken(ctx context.Context, token authstore.VerificationToken) (*authstore.VerificationToken, error) {
	return observe(a, "create_verification_token", func() (*authstore.VerificationToken, error) {
		return a.next.CreateVerificationToken(ctx, token)
	})
}

func (a *Adapter) UseVerificationToken(ctx context.Context, identifier string, token string) (*authstore.VerificationToken, error) {
	return observe(a, "use_verification_token", func() (*authstore.VerificationToken, error) {
		return a.next.UseVerificationToken(ctx, identifier, token)
	})
}

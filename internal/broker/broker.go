// Package broker drives the multi-step sign-in flow against a remote instance:
// register an application, hand the user to the instance for approval, exchange
// the returned code and finally act on the user's behalf.
//
// The broker is stateless. Everything it needs between steps arrives in a
// state.State rebuilt from the request's cookies.
package broker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BlackMission/fedisub/internal/auth"
	"github.com/BlackMission/fedisub/internal/domain"
	"github.com/BlackMission/fedisub/internal/instance"
	"github.com/BlackMission/fedisub/internal/metrics"
	"github.com/BlackMission/fedisub/internal/observability/logger"
	"github.com/BlackMission/fedisub/internal/state"
)

// CallbackPath is where instances send the user back after approval.
const CallbackPath = "/registration-callback"

// DefaultScopes are requested from every instance, in this order.
var DefaultScopes = []string{"read", "write", "follow"}

// Config holds the broker's settings.
type Config struct {
	// AppBase is the externally visible origin of this service, without a trailing slash.
	AppBase string
	Scopes  []string
}

// Broker runs each flow step. It is safe for concurrent use.
type Broker struct {
	provider    auth.Provider
	callbackURL string
	scopes      []string
	allowlist   *instance.Allowlist
	metrics     *metrics.Metrics
}

// Option configures a Broker.
type Option func(*Broker)

// WithAllowlist restricts which instances Begin accepts.
func WithAllowlist(a *instance.Allowlist) Option {
	return func(b *Broker) { b.allowlist = a }
}

// WithMetrics records every transition on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Broker) { b.metrics = m }
}

// New creates a Broker using provider for every remote call.
func New(cfg Config, provider auth.Provider, opts ...Option) *Broker {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	b := &Broker{
		provider:    provider,
		callbackURL: cfg.AppBase + CallbackPath,
		scopes:      scopes,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// CallbackURL is the redirect URI registered with every instance.
func (b *Broker) CallbackURL() string { return b.callbackURL }

// FollowingView is what an authenticated user sees: themselves and who they follow.
type FollowingView struct {
	Instance  domain.Instance
	Me        domain.Profile
	Following []domain.Profile
}

// Begin validates rawDomain and registers a fresh application with that instance.
// The caller stores the returned credentials and sends the user to its
// AuthorizationURL.
func (b *Broker) Begin(ctx context.Context, rawDomain string) (*domain.Registration, error) {
	const op = "broker.Begin"
	log := logger.From(ctx).With(logger.Op(op))

	inst, err := instance.Normalize(rawDomain)
	if err != nil {
		return nil, b.fail(log, metrics.StepRegister, domain.E(domain.KindValidation, op, err))
	}
	log = log.With(logger.Domain(inst.Domain))

	if b.allowlist != nil {
		if err := b.allowlist.Validate(inst); err != nil {
			return nil, b.fail(log, metrics.StepRegister, domain.E(domain.KindValidation, op, err))
		}
	}

	start := time.Now()
	reg, err := b.provider.RegisterApplication(ctx, inst, b.callbackURL, b.scopes)
	b.metrics.ObserveRemote(metrics.StepRegister, time.Since(start))
	if err != nil {
		return nil, b.fail(log, metrics.StepRegister, domain.E(domain.KindRegistration, op, err))
	}

	b.ok(log, metrics.StepRegister, "application registered", logger.ClientID(reg.ClientID))
	return reg, nil
}

// Complete exchanges the authorization code the instance returned for tokens,
// using the client credentials stored by Begin.
func (b *Broker) Complete(ctx context.Context, st state.State, code string) (*domain.TokenPair, error) {
	const op = "broker.Complete"
	log := logger.From(ctx).With(logger.Op(op), logger.Stage(st.Stage().String()))

	pending, err := st.Pending()
	if err != nil {
		return nil, b.fail(log, metrics.StepExchange, domain.E(domain.KindUnauthenticated, op, err))
	}
	log = log.With(logger.Domain(pending.Instance.Domain))

	if code == "" {
		return nil, b.fail(log, metrics.StepExchange, domain.E(domain.KindValidation, op, domain.ErrMissingCode))
	}

	grant := domain.AuthorizationGrant{Code: code, Instance: pending.Instance}
	start := time.Now()
	tokens, err := b.provider.ExchangeCode(ctx, grant, pending.ClientID, pending.ClientSecret, b.callbackURL)
	b.metrics.ObserveRemote(metrics.StepExchange, time.Since(start))
	if err != nil {
		return nil, b.fail(log, metrics.StepExchange, domain.E(domain.KindExchange, op, err))
	}

	b.ok(log, metrics.StepExchange, "authorization code exchanged")
	return tokens, nil
}

// Following loads the signed-in account and the accounts it follows.
func (b *Broker) Following(ctx context.Context, st state.State) (*FollowingView, error) {
	const op = "broker.Following"
	log := logger.From(ctx).With(logger.Op(op), logger.Stage(st.Stage().String()))

	creds, err := st.Credentials()
	if err != nil {
		return nil, b.fail(log, metrics.StepFollowing, domain.E(domain.KindUnauthenticated, op, err))
	}
	log = log.With(logger.Domain(creds.Instance.Domain))

	sess := b.provider.Session(creds.Instance, creds.AccessToken)
	start := time.Now()
	defer func() { b.metrics.ObserveRemote(metrics.StepFollowing, time.Since(start)) }()

	me, err := sess.VerifyIdentity(ctx)
	if err != nil {
		return nil, b.fail(log, metrics.StepFollowing, domain.E(domain.KindDownstream, op, err))
	}
	following, err := sess.ListFollowing(ctx, me.ID)
	if err != nil {
		return nil, b.fail(log, metrics.StepFollowing, domain.E(domain.KindDownstream, op, err))
	}

	b.ok(log, metrics.StepFollowing, "follow list loaded", logger.UserID(me.ID), logger.Count(len(following)))
	return &FollowingView{Instance: creds.Instance, Me: *me, Following: following}, nil
}

// Subscribe asks the instance to notify the signed-in user about userID's posts.
func (b *Broker) Subscribe(ctx context.Context, st state.State, userID string) error {
	return b.relationship(ctx, st, userID, metrics.StepSubscribe, auth.Session.Subscribe)
}

// Unsubscribe stops notifications for userID's posts.
func (b *Broker) Unsubscribe(ctx context.Context, st state.State, userID string) error {
	return b.relationship(ctx, st, userID, metrics.StepUnsubscribe, auth.Session.Unsubscribe)
}

func (b *Broker) relationship(ctx context.Context, st state.State, userID, step string,
	call func(auth.Session, context.Context, string) error) error {
	op := "broker." + step
	log := logger.From(ctx).With(logger.Op(op), logger.Stage(st.Stage().String()))

	creds, err := st.Credentials()
	if err != nil {
		return b.fail(log, step, domain.E(domain.KindUnauthenticated, op, err))
	}
	log = log.With(logger.Domain(creds.Instance.Domain))

	if userID == "" {
		return b.fail(log, step, domain.E(domain.KindValidation, op, domain.ErrMissingUserID))
	}
	log = log.With(logger.UserID(userID))

	start := time.Now()
	err = call(b.provider.Session(creds.Instance, creds.AccessToken), ctx, userID)
	b.metrics.ObserveRemote(step, time.Since(start))
	if err != nil {
		return b.fail(log, step, domain.E(domain.KindDownstream, op, err))
	}

	b.ok(log, step, fmt.Sprintf("%s succeeded", step))
	return nil
}

func (b *Broker) ok(log *zap.Logger, step, msg string, fields ...zap.Field) {
	b.metrics.Transition(step, "ok")
	log.Info(msg, fields...)
}

func (b *Broker) fail(log *zap.Logger, step string, err *domain.Error) error {
	b.metrics.Transition(step, err.Kind.String())
	log.Warn("flow step failed", logger.Kind(err.Kind.String()), logger.Err(err.Err))
	return err
}

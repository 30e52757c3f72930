package container

import (
	"github.com/samber/do"
	"github.com/serroba/linkmark/internal/analytics"
	"github.com/serroba/linkmark/internal/auth"
	"github.com/serroba/linkmark/internal/billing"
	"github.com/serroba/linkmark/internal/documents"
	"github.com/serroba/linkmark/internal/mail"
	"github.com/serroba/linkmark/internal/markdown"
	"github.com/serroba/linkmark/internal/messaging"
	"github.com/serroba/linkmark/internal/metrics"
	"github.com/serroba/linkmark/internal/shortener"
	"github.com/serroba/linkmark/internal/slug"
	"github.com/serroba/linkmark/internal/task"
	"go.uber.org/zap"
)

// ServicePackage registers the domain services on top of the repositories.
func ServicePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*task.Runner, error) {
		return task.NewRunner(do.MustInvoke[*zap.Logger](i), task.DefaultTimeout), nil
	})

	do.Provide(injector, func(_ *do.Injector) (slug.Generator, error) {
		return slug.NewGenerator(slug.DefaultLength)
	})

	do.Provide(injector, func(i *do.Injector) (*markdown.Converter, error) {
		m := do.MustInvoke[*metrics.Metrics](i)

		return markdown.NewConverter(do.MustInvoke[*zap.Logger](i), m.ObserveRender), nil
	})

	do.Provide(injector, func(i *do.Injector) (*billing.Gate, error) {
		repos := do.MustInvoke[*Repositories](i)

		return billing.NewGate(repos.Profiles, do.MustInvoke[*zap.Logger](i)), nil
	})

	do.Provide(injector, func(i *do.Injector) (*auth.Verifier, error) {
		opts := do.MustInvoke[*Options](i)

		verifier := auth.NewVerifier(opts.JWTSecret)
		if !verifier.Enabled() {
			do.MustInvoke[*zap.Logger](i).Warn("no JWT secret configured, every request is anonymous")
		}

		return verifier, nil
	})

	do.Provide(injector, func(i *do.Injector) (*shortener.LinkService, error) {
		repos := do.MustInvoke[*Repositories](i)

		return shortener.NewLinkService(repos.Links,
			allocator(i, shortener.NamespaceLinks, repos.Links.CodeExists),
			do.MustInvoke[*zap.Logger](i)), nil
	})

	do.Provide(injector, func(i *do.Injector) (*shortener.QRService, error) {
		repos := do.MustInvoke[*Repositories](i)

		return shortener.NewQRService(repos.QRCodes,
			allocator(i, shortener.NamespaceQR, repos.QRCodes.CodeExists),
			do.MustInvoke[*billing.Gate](i),
			do.MustInvoke[*zap.Logger](i)), nil
	})

	do.Provide(injector, func(i *do.Injector) (*documents.Service, error) {
		repos := do.MustInvoke[*Repositories](i)

		return documents.NewService(repos.Documents, repos.Shares,
			do.MustInvoke[*markdown.Converter](i),
			allocator(i, shortener.NamespaceShares, repos.Shares.SlugExists),
			do.MustInvoke[*zap.Logger](i)), nil
	})

	do.Provide(injector, func(i *do.Injector) (*shortener.Resolver, error) {
		repos := do.MustInvoke[*Repositories](i)

		return shortener.NewResolver(repos.Links, repos.QRCodes), nil
	})

	do.Provide(injector, func(i *do.Injector) (*analytics.Recorder, error) {
		group := do.MustInvoke[*messaging.PublisherGroup](i)
		publish := messaging.NewPublishFunc[analytics.VisitEvent](group.Publisher(), analytics.TopicVisit)

		return analytics.NewRecorder(publish,
			do.MustInvoke[*task.Runner](i),
			do.MustInvoke[*zap.Logger](i),
			analyticsObserver(do.MustInvoke[*metrics.Metrics](i))), nil
	})

	do.Provide(injector, func(i *do.Injector) (*analytics.Reporter, error) {
		return analytics.NewReporter(do.MustInvoke[*Repositories](i).Events), nil
	})

	do.Provide(injector, func(i *do.Injector) (mail.Sender, error) {
		opts := do.MustInvoke[*Options](i)
		log := do.MustInvoke[*zap.Logger](i)

		if opts.SMTPHost == "" {
			return mail.NewLogSender(log), nil
		}

		return mail.NewSMTPSender(mail.SMTPConfig{
			Host:     opts.SMTPHost,
			Port:     opts.SMTPPort,
			Username: opts.SMTPUser,
			Password: opts.SMTPPassword,
			From:     opts.MailFrom,
		}, log), nil
	})

	do.Provide(injector, func(i *do.Injector) (*billing.WebhookHandler, error) {
		opts := do.MustInvoke[*Options](i)
		log := do.MustInvoke[*zap.Logger](i)
		repos := do.MustInvoke[*Repositories](i)

		if opts.StripeWebhookSecret == "" {
			log.Warn("no webhook secret configured, every billing delivery is rejected")
		}

		var sessions billing.CheckoutSessions
		if opts.StripeSecretKey != "" {
			sessions = billing.NewStripeSessions(opts.StripeSecretKey)
		}

		return billing.NewWebhookHandler(
			billing.WebhookConfig{
				Secret:      opts.StripeWebhookSecret,
				BaseURL:     opts.PublicURL(),
				SettleDelay: opts.settleDelay(),
			},
			sessions,
			repos.Profiles,
			repos.Ledger,
			do.MustInvoke[mail.Sender](i),
			do.MustInvoke[*task.Runner](i),
			log,
			do.MustInvoke[*metrics.Metrics](i).ObserveWebhook,
		), nil
	})
}

func allocator(i *do.Injector, ns shortener.Namespace, exists shortener.ExistsFunc) *shortener.Allocator {
	m := do.MustInvoke[*metrics.Metrics](i)

	return shortener.NewAllocator(ns, exists, do.MustInvoke[slug.Generator](i),
		shortener.WithObserver(func(ns shortener.Namespace, outcome string, attempts int) {
			m.ObserveAllocation(string(ns), outcome, attempts)
		}))
}

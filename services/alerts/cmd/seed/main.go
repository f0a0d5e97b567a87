package main

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"pocketledger/pkg/config"
	"pocketledger/pkg/database"
	"pocketledger/pkg/jwt"
	"pocketledger/pkg/logger"
	"pocketledger/services/alerts/internal/entity"
	"pocketledger/services/alerts/internal/repo/persistent"
)

const demoTenant = "household-demo"

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log := logger.New()
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		panic(err)
	}

	repo := persistent.NewNotificationRepository(db)
	now := time.Now().UTC()

	demo := []*entity.Notification{
		{
			TenantID:    demoTenant,
			EventType:   entity.EventPaymentOverdue,
			EntityType:  "transaction",
			EntityID:    "tx-demo-rent",
			ReferenceID: "tx-demo-rent",
			Severity:    entity.SeverityAction,
			MessageKey:  "alerts.payment_overdue",
			Params:      map[string]interface{}{"payee": "Rent", "amount": "950.00"},
			CTALabelKey: "alerts.cta.review_payment",
			CTATarget:   "/transactions/tx-demo-rent",
			Status:      entity.StatusUnread,
		},
		{
			TenantID:   demoTenant,
			EventType:  entity.EventMonthAtRisk,
			EntityType: "month",
			Severity:   entity.SeverityWarning,
			MessageKey: "alerts.month_at_risk",
			Params:     map[string]interface{}{"month": now.Format("2006-01"), "projected": "-84.20"},
			Status:     entity.StatusUnread,
		},
		{
			TenantID:   demoTenant,
			EventType:  entity.EventCoverageRisk,
			EntityType: "account",
			EntityID:   "acct-demo-checking",
			Severity:   entity.SeverityWarning,
			MessageKey: "alerts.coverage_risk",
			Params:     map[string]interface{}{"account": "Checking", "shortfall": "120.00"},
			Status:     entity.StatusUnread,
		},
		{
			TenantID:    demoTenant,
			EventType:   entity.EventRecurringLate,
			EntityType:  "transaction",
			EntityID:    "tx-demo-electric",
			ReferenceID: "tx-demo-electric",
			Severity:    entity.SeverityInfo,
			MessageKey:  "alerts.recurring_late",
			Params:      map[string]interface{}{"payee": "Electric Co"},
			Status:      entity.StatusUnread,
		},
	}

	seeded := 0
	for _, n := range demo {
		window := entity.WindowForEvent(n.EventType)
		n.DedupeKey = entity.BuildDedupeKey(n.EventType, n.EntityType, n.EntityID, window, now)

		err := repo.Insert(n)
		switch {
		case errors.Is(err, persistent.ErrDuplicateDedupeKey):
			log.Info("Skipping %s, already seeded", n.DedupeKey)
		case err != nil:
			log.Error("Failed to seed %s: %v", n.DedupeKey, err)
			panic(err)
		default:
			seeded++
		}
	}

	jwtService := jwt.NewService(cfg.JWTSecret)
	token, err := jwtService.GenerateToken(demoTenant, "member")
	if err != nil {
		log.Error("Failed to generate demo token: %v", err)
		panic(err)
	}

	log.Info("Seeded %d demo alert(s) for tenant %s", seeded, demoTenant)
	fmt.Printf("\nDemo tenant: %s\nDemo token:  %s\n", demoTenant, token)
}

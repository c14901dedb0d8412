package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProfessionMetric string

const (
	ProfessionMetricMax ProfessionMetric = "max"
	ProfessionMetricSum ProfessionMetric = "sum"
)

type ProfessionEarnings struct {
	Profession string          `json:"profession"`
	Amount     decimal.Decimal `json:"amount"`
}

type ClientSpending struct {
	ID       uuid.UUID       `json:"id"`
	FullName string          `json:"fullName"`
	Paid     decimal.Decimal `json:"paid"`
}

type RevenueReport struct {
	PeriodStart    time.Time
	PeriodEnd      time.Time
	Metric         ProfessionMetric
	BestProfession *ProfessionEarnings
	Clients        []ClientSpending
}

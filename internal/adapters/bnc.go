package adapters

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dvloznov/finance-ledger/internal/domain"
)

const (
	bncSender     = "notificaciones@bnc.com.ve"
	bncSubject    = "BNC Aviso de Debito"
	bncDateFormat = "02/01/2006"
)

// bncBodyRe extracts the single debit a BNC notice carries:
//
//	BNC le notifica: debito por Bs. 200,00. Concepto: TRANSFERENCIA A TERCEROS. Referencia: 987654321. Fecha: 16/07/2024.
var bncBodyRe = regexp.MustCompile(
	`debito por Bs\.?\s*([\d.]*\d,\d{2})\.\s*Concepto:\s*(.+?)\.\s*Referencia:\s*(\d+)\.\s*Fecha:\s*(\d{2}/\d{2}/\d{4})`)

// BNCAdapter parses BNC debit notices. One email, one outgoing transfer,
// keyed by the bank reference number.
type BNCAdapter struct{}

func (a *BNCAdapter) Name() string { return "bnc" }

func (a *BNCAdapter) Match(email domain.RawEmail) bool {
	return strings.EqualFold(email.Sender, bncSender) &&
		strings.HasPrefix(email.Subject, bncSubject)
}

func (a *BNCAdapter) Tag() domain.Tag {
	return domain.Tag{
		Platform: domain.PlatformBNC,
		Method:   domain.MethodTransfer,
		Type:     domain.TypeExpense,
	}
}

func (a *BNCAdapter) Parse(email domain.RawEmail) ([]domain.ParsedRecord, error) {
	if !a.Match(email) {
		return nil, fmt.Errorf("bnc: sender %q subject %q: %w", email.Sender, email.Subject, domain.ErrAdapterMismatch)
	}

	m := bncBodyRe.FindStringSubmatch(email.Body)
	if m == nil {
		return nil, nil
	}

	amount, err := parseVesAmount(m[1])
	if err != nil || !amount.IsPositive() {
		return nil, nil
	}
	date, err := time.Parse(bncDateFormat, m[4])
	if err != nil {
		return nil, nil
	}

	return []domain.ParsedRecord{{
		Date:        date,
		Description: strings.TrimSpace(m[2]),
		Amount:      amount,
		Currency:    "VES",
		ExternalID:  "BNC_" + m[3],
		Direction:   domain.DirectionOut,
	}}, nil
}

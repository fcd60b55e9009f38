package adapters

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dvloznov/finance-ledger/internal/domain"
)

const (
	mercantilSender     = "avisos@bancomercantil.com"
	mercantilDateFormat = "02/01/2006"
)

var mercantilSubjects = []string{
	"Mercantil: Pago Movil recibido",
	"Mercantil: Notificacion de Pago Movil",
}

// mercantilBodyRe extracts the single operation a pago movil notice carries:
//
//	Mercantil te informa: Pago Movil recibido por Bs. 350,00 de JUAN PEREZ Ref: 001234567890 el 15/07/2024.
var mercantilBodyRe = regexp.MustCompile(
	`Pago Movil recibido por Bs\.?\s*([\d.]*\d,\d{2})\s+de\s+(.+?)\s+Ref:\s*(\d+)\s+el\s+(\d{2}/\d{2}/\d{4})`)

// MercantilAdapter parses Mercantil pago movil credit notices. Each email
// describes exactly one incoming payment and carries the bank's own reference
// number, which becomes the natural key.
type MercantilAdapter struct{}

func (a *MercantilAdapter) Name() string { return "mercantil" }

func (a *MercantilAdapter) Match(email domain.RawEmail) bool {
	if !strings.EqualFold(email.Sender, mercantilSender) {
		return false
	}
	for _, subject := range mercantilSubjects {
		if email.Subject == subject || strings.HasPrefix(email.Subject, subject) {
			return true
		}
	}
	return false
}

func (a *MercantilAdapter) Tag() domain.Tag {
	return domain.Tag{
		Platform: domain.PlatformMercantil,
		Method:   domain.MethodPagoMovil,
		Type:     domain.TypeIncome,
	}
}

func (a *MercantilAdapter) Parse(email domain.RawEmail) ([]domain.ParsedRecord, error) {
	if !a.Match(email) {
		return nil, fmt.Errorf("mercantil: sender %q subject %q: %w", email.Sender, email.Subject, domain.ErrAdapterMismatch)
	}

	m := mercantilBodyRe.FindStringSubmatch(email.Body)
	if m == nil {
		return nil, nil
	}

	amount, err := parseVesAmount(m[1])
	if err != nil || !amount.IsPositive() {
		return nil, nil
	}
	date, err := time.Parse(mercantilDateFormat, m[4])
	if err != nil {
		return nil, nil
	}

	return []domain.ParsedRecord{{
		Date:        date,
		Description: "Pago Movil de " + strings.TrimSpace(m[2]),
		Amount:      amount,
		Currency:    "VES",
		ExternalID:  "MERCANTIL_" + m[3],
		Direction:   domain.DirectionIn,
	}}, nil
}

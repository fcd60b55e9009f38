package adapters

import (
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/finance-ledger/internal/domain"
)

const banescoSummaryBody = `Estimado Cliente,

Le informamos las operaciones realizadas con su Tarjeta de Debito:

15/07/2024 COMPRA FARMATODO CCCT 45,00 Bs.

Gracias por usar Banesco.
`

func banescoEmail(body string) domain.RawEmail {
	return domain.RawEmail{
		SourceID:   "mail-1",
		Sender:     "Notificacion@banesco.com",
		Subject:    "Resumen de Operaciones con TDD Banesco",
		Body:       body,
		ReceivedAt: time.Date(2024, 7, 15, 20, 0, 0, 0, time.UTC),
	}
}

func TestBanescoParse_SingleCharge(t *testing.T) {
	a := &BanescoAdapter{}
	email := banescoEmail(banescoSummaryBody)

	records, err := a.Parse(email)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if got := rec.Amount.StringFixed(2); got != "45.00" {
		t.Errorf("amount = %s, want 45.00", got)
	}
	if rec.Currency != "VES" {
		t.Errorf("currency = %s, want VES", rec.Currency)
	}
	if rec.Description != "COMPRA FARMATODO CCCT" {
		t.Errorf("description = %q", rec.Description)
	}
	if rec.Direction != domain.DirectionOut {
		t.Errorf("direction = %s, want OUT", rec.Direction)
	}
	wantDate := time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)
	if !rec.Date.Equal(wantDate) {
		t.Errorf("date = %s, want %s", rec.Date, wantDate)
	}

	tag := a.Tag()
	if tag.Platform != domain.PlatformBanesco || tag.Method != domain.MethodDebitCard || tag.Type != domain.TypeExpense {
		t.Errorf("tag = %+v, want {BANESCO DEBIT_CARD EXPENSE}", tag)
	}
}

func TestBanescoParse_Deterministic(t *testing.T) {
	a := &BanescoAdapter{}
	email := banescoEmail(banescoSummaryBody)

	first, err := a.Parse(email)
	if err != nil {
		t.Fatal(err)
	}
	second, err := a.Parse(email)
	if err != nil {
		t.Fatal(err)
	}

	if len(first) != len(second) {
		t.Fatalf("parse not deterministic: %d vs %d records", len(first), len(second))
	}
	for i := range first {
		if first[i].ExternalID != second[i].ExternalID || !first[i].Amount.Equal(second[i].Amount) {
			t.Errorf("record %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestBanescoParse_RepeatedChargesKeepDistinctKeys(t *testing.T) {
	a := &BanescoAdapter{}
	// Two bus fares in one day: identical merchant, amount and date, but two
	// real operations.
	body := "15/07/2024 PAGO METROBUS 45,00 Bs.\n" +
		"15/07/2024 PAGO METROBUS 45,00 Bs.\n"

	records, err := a.Parse(banescoEmail(body))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ExternalID == records[1].ExternalID {
		t.Errorf("repeated charges share key %s", records[0].ExternalID)
	}

	// Re-feeding the same email must still dedupe: same keys both times.
	again, err := a.Parse(banescoEmail(body))
	if err != nil {
		t.Fatal(err)
	}
	for i := range records {
		if records[i].ExternalID != again[i].ExternalID {
			t.Errorf("record %d key changed between runs: %s vs %s", i, records[i].ExternalID, again[i].ExternalID)
		}
	}
}

func TestBanescoParse_Table(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantLen int
	}{
		{
			name: "multiple charges with thousands separator",
			body: "15/07/2024 COMPRA FARMATODO CCCT 45,00 Bs.\n" +
				"16/07/2024 COMPRA AUTOMERCADO PZO 1.250,75 Bs.\n",
			wantLen: 2,
		},
		{
			name:    "malformed body yields zero records",
			body:    "Su clave ha sido actualizada correctamente.",
			wantLen: 0,
		},
		{
			name:    "empty body",
			body:    "",
			wantLen: 0,
		},
		{
			name: "bad date skipped, good row kept",
			body: "99/99/2024 COMPRA X 10,00 Bs.\n" +
				"15/07/2024 COMPRA Y 20,00 Bs.\n",
			wantLen: 1,
		},
		{
			name:    "missing Bs suffix ignored",
			body:    "15/07/2024 COMPRA FARMATODO 45,00",
			wantLen: 0,
		},
	}

	a := &BanescoAdapter{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := a.Parse(banescoEmail(tt.body))
			if err != nil {
				t.Fatalf("Parse returned error: %v", err)
			}
			if len(records) != tt.wantLen {
				t.Errorf("got %d records, want %d", len(records), tt.wantLen)
			}
		})
	}
}

func TestBanescoParse_Mismatch(t *testing.T) {
	a := &BanescoAdapter{}
	email := domain.RawEmail{
		Sender:  "phisher@example.com",
		Subject: "Resumen de Operaciones con TDD Banesco",
		Body:    banescoSummaryBody,
	}

	if a.Match(email) {
		t.Fatal("Match must reject wrong sender")
	}
	_, err := a.Parse(email)
	if !errors.Is(err, domain.ErrAdapterMismatch) {
		t.Errorf("Parse error = %v, want ErrAdapterMismatch", err)
	}
}

func TestBanescoMatch_SubjectPrefix(t *testing.T) {
	a := &BanescoAdapter{}
	email := banescoEmail("")
	email.Subject = "Resumen de Operaciones con TDD Banesco - Tarjeta 1234"
	if !a.Match(email) {
		t.Error("Match must accept subject prefix")
	}
}

package adapters

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-ledger/internal/domain"
)

const (
	banescoSender        = "Notificacion@banesco.com"
	banescoSubjectPrefix = "Resumen de Operaciones con TDD Banesco"
	banescoDateFormat    = "02/01/2006"
)

// banescoLineRe matches one charge row of a TDD summary email:
//
//	15/07/2024 COMPRA FARMATODO CCCT 45,00 Bs.
var banescoLineRe = regexp.MustCompile(`^(\d{2}/\d{2}/\d{4})\s+(.+?)\s+([\d.]*\d,\d{2})\s*Bs\.?$`)

// BanescoAdapter parses Banesco debit-card operation summary emails. One
// email lists every card operation of the day, so a single payload may yield
// several records. Banesco summaries carry no per-operation reference number;
// the natural key is derived from date, merchant and amount.
type BanescoAdapter struct{}

func (a *BanescoAdapter) Name() string { return "banesco" }

// Match checks the Banesco source signature: fixed sender plus the TDD
// summary subject, exact or prefixed (Banesco appends the card suffix).
func (a *BanescoAdapter) Match(email domain.RawEmail) bool {
	if !strings.EqualFold(email.Sender, banescoSender) {
		return false
	}
	return strings.HasPrefix(email.Subject, banescoSubjectPrefix)
}

func (a *BanescoAdapter) Tag() domain.Tag {
	return domain.Tag{
		Platform: domain.PlatformBanesco,
		Method:   domain.MethodDebitCard,
		Type:     domain.TypeExpense,
	}
}

// Parse scans the body line by line and extracts every charge row. Lines that
// do not look like charge rows (greetings, footers, malformed rows) are
// skipped, so a fully malformed body yields zero records and no error.
func (a *BanescoAdapter) Parse(email domain.RawEmail) ([]domain.ParsedRecord, error) {
	if !a.Match(email) {
		return nil, fmt.Errorf("banesco: sender %q subject %q: %w", email.Sender, email.Subject, domain.ErrAdapterMismatch)
	}

	var records []domain.ParsedRecord
	seen := make(map[string]int)
	scanner := bufio.NewScanner(strings.NewReader(email.Body))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		m := banescoLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		date, err := time.Parse(banescoDateFormat, m[1])
		if err != nil {
			continue
		}
		amount, err := parseVesAmount(m[3])
		if err != nil || !amount.IsPositive() {
			continue
		}

		desc := strings.TrimSpace(m[2])
		key := banescoKey(date, desc, amount)
		// Two identical charges in one summary (same merchant, amount and
		// day) are distinct real operations, so repeats within one email get
		// an occurrence suffix. Line order is fixed per email, so re-feeding
		// the same payload still produces the same keys.
		seen[key]++
		if n := seen[key]; n > 1 {
			key = fmt.Sprintf("%s_%d", key, n)
		}

		records = append(records, domain.ParsedRecord{
			Date:        date,
			Description: desc,
			Amount:      amount,
			Currency:    "VES",
			ExternalID:  key,
			Direction:   domain.DirectionOut,
		})
	}

	return records, nil
}

// banescoKey builds a key like BANESCO_20240715_FARMATODOCC_4500.
func banescoKey(date time.Time, desc string, amount decimal.Decimal) string {
	cents := strings.ReplaceAll(amount.StringFixed(2), ".", "")
	return fmt.Sprintf("BANESCO_%s_%s_%s", date.Format("20060102"), slug(desc, 12), cents)
}

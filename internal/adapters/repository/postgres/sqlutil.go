package postgres

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const (
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
)

var errInvalidNumeric = errors.New("postgres: numeric value is not finite")

// toNumeric は decimal.Decimal を NUMERIC 用の値に変換します。
func toNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

// fromNumeric は NUMERIC の値を decimal.Decimal に変換します。NULL はゼロになります。
func fromNumeric(n pgtype.Numeric) (decimal.Decimal, error) {
	if !n.Valid {
		return decimal.Zero, nil
	}
	if n.NaN || n.InfinityModifier != pgtype.Finite {
		return decimal.Decimal{}, errInvalidNumeric
	}
	coefficient := n.Int
	if coefficient == nil {
		coefficient = new(big.Int)
	}
	return decimal.NewFromBigInt(coefficient, n.Exp), nil
}

func nullableString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableDate(value *time.Time) any {
	if value == nil {
		return nil
	}
	return truncateDate(*value)
}

func truncateDate(t time.Time) time.Time {
	utc := t.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
}

func conflictError(sentinel, err error) error {
	return fmt.Errorf("%w: %v", sentinel, err)
}

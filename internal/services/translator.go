package services

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"

	"retail-scraper-service/internal/apperrors"
	"retail-scraper-service/internal/repository"
)

const (
	mysqlDuplicateEntry     = "Duplicate entry"
	mysqlErrDuplicateEntry  = 1062
	postgresUniqueViolation = "23505"
)

var (
	// 'OAT-1000-3' -> mpn OAT-1000, pack size 3
	duplicateEntryPattern = regexp.MustCompile(`'([^']*)-(\d+)'`)
	// Key (manufacturer_part_number, pack_size_id)=(OAT-1000, 3) already exists.
	uniqueViolationPattern = regexp.MustCompile(`\(manufacturer_part_number, pack_size_id\)=\((.*), (\d+)\)`)
)

// TranslateError maps a failed import to a typed error. Errors that are already
// typed pass through. Duplicate-key violations naming a known pack size become
// DuplicateProductError; everything else becomes ImportError.
func TranslateError(ctx context.Context, repo repository.CatalogRepositoryInterface, err error) error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}

	if mpn, packSizeID, ok := duplicateProductKey(err); ok {
		packSize, lookupErr := repo.GetPackSizeByID(ctx, packSizeID)
		if lookupErr == nil && packSize != nil {
			return apperrors.DuplicateProductError(mpn, packSize.Describe(), err)
		}
	}

	return apperrors.ImportError(err)
}

// duplicateProductKey extracts the product natural key from a duplicate-key
// violation. ok is false when err is not one or the key cannot be parsed.
func duplicateProductKey(err error) (mpn string, packSizeID uint, ok bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == postgresUniqueViolation {
		return matchKey(uniqueViolationPattern, pgErr.Detail)
	}

	message := err.Error()
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry {
		message = mysqlErr.Message
	}
	if !strings.Contains(message, mysqlDuplicateEntry) {
		return "", 0, false
	}
	return matchKey(duplicateEntryPattern, message)
}

func matchKey(pattern *regexp.Regexp, text string) (string, uint, bool) {
	match := pattern.FindStringSubmatch(text)
	if match == nil {
		return "", 0, false
	}
	id, err := strconv.ParseUint(match[2], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return match[1], uint(id), true
}

// backend-go/internal/ingest/processor.go
package ingest

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Processor loads exported CSV files into Postgres. Each file is applied in a
// single transaction: a malformed row is skipped and logged, anything worse
// rolls the whole file back.
type Processor struct {
	db *sql.DB
}

func NewProcessor(db *sql.DB) *Processor {
	return &Processor{db: db}
}

// ProcessFile routes a CSV to the right loader. The file kind comes from the
// parent directory name (the drive sync keeps sales/, budgets/ and stores/
// folders) with the filename prefix as a fallback for flat directories.
func (p *Processor) ProcessFile(ctx context.Context, filePath string) error {
	kind := fileKind(filePath)
	switch kind {
	case "stores":
		return p.processStores(ctx, filePath)
	case "sales":
		return p.processSales(ctx, filePath)
	case "budgets":
		return p.processBudgets(ctx, filePath)
	default:
		return fmt.Errorf("cannot determine file type for %s", filepath.Base(filePath))
	}
}

// ProcessDir walks dir and loads every CSV it finds, stores master first so
// sales and budget rows resolve against fresh store records. Returns the
// number of files loaded; the first failing file aborts the walk.
func (p *Processor) ProcessDir(ctx context.Context, dir string) (int, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".csv") {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to walk %s: %w", dir, err)
	}

	ordered := make([]string, 0, len(paths))
	for _, path := range paths {
		if fileKind(path) == "stores" {
			ordered = append(ordered, path)
		}
	}
	for _, path := range paths {
		if fileKind(path) != "stores" {
			ordered = append(ordered, path)
		}
	}

	loaded := 0
	for _, path := range ordered {
		if err := p.ProcessFile(ctx, path); err != nil {
			return loaded, fmt.Errorf("failed to process %s: %w", path, err)
		}
		loaded++
	}
	return loaded, nil
}

func fileKind(filePath string) string {
	dir := strings.ToLower(filepath.Base(filepath.Dir(filePath)))
	switch dir {
	case "stores", "sales", "budgets":
		return dir
	}
	name := strings.ToLower(filepath.Base(filePath))
	switch {
	case strings.HasPrefix(name, "store"):
		return "stores"
	case strings.HasPrefix(name, "sales"):
		return "sales"
	case strings.HasPrefix(name, "budget"):
		return "budgets"
	}
	return ""
}

// processStores upserts the store master list. Rows match on store name;
// blank area/city never overwrite values loaded earlier.
func (p *Processor) processStores(ctx context.Context, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}
	colMap := mapColumns(header)
	nameCol, ok := pick(colMap, "name", "store", "store_name")
	if !ok {
		return fmt.Errorf("missing required column: name")
	}
	areaCol, _ := pick(colMap, "area", "region")
	cityCol, _ := pick(colMap, "city")
	openedCol, _ := pick(colMap, "opened_at", "opened", "open_date")
	activeCol, _ := pick(colMap, "active", "is_active")

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stores (name, area, city, opened_at, active, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (name)
		DO UPDATE SET
			area = COALESCE(NULLIF(EXCLUDED.area, ''), stores.area),
			city = COALESCE(NULLIF(EXCLUDED.city, ''), stores.city),
			opened_at = COALESCE(EXCLUDED.opened_at, stores.opened_at),
			active = EXCLUDED.active,
			updated_at = NOW()
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	rows, skipped := 0, 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read record: %w", err)
		}

		name := field(record, nameCol)
		if name == "" {
			skipped++
			log.Warn().Str("file", filepath.Base(filePath)).Int("row", rows+skipped+1).
				Msg("skipping store row without name")
			continue
		}

		opened := parseDate(field(record, openedCol))
		_, err = stmt.ExecContext(ctx,
			name,
			field(record, areaCol),
			field(record, cityCol),
			toNullTime(opened),
			parseActive(field(record, activeCol)),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert store %s: %w", name, err)
		}
		rows++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info().Str("file", filepath.Base(filePath)).Int("rows", rows).Int("skipped", skipped).
		Msg("loaded store master")
	return nil
}

// processSales upserts one row per store-month of net sales. Stores referenced
// before their master row arrives are created on the fly with just a name; the
// next master load backfills area and city.
func (p *Processor) processSales(ctx context.Context, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}
	colMap := mapColumns(header)
	storeCol, ok := pick(colMap, "store", "store_name", "name")
	if !ok {
		return fmt.Errorf("missing required column: store")
	}
	monthCol, ok := pick(colMap, "month", "period")
	if !ok {
		return fmt.Errorf("missing required column: month")
	}
	salesCol, ok := pick(colMap, "net_sales", "sales", "netto")
	if !ok {
		return fmt.Errorf("missing required column: net_sales")
	}
	trxCol, _ := pick(colMap, "transactions", "trx")

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO monthly_sales (store_id, month, net_sales, transactions, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (store_id, month)
		DO UPDATE SET
			net_sales = EXCLUDED.net_sales,
			transactions = EXCLUDED.transactions,
			updated_at = NOW()
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	resolver := newStoreResolver()
	rows, skipped := 0, 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read record: %w", err)
		}

		name := field(record, storeCol)
		month, merr := parseMonth(field(record, monthCol))
		netSales, serr := parseAmount(field(record, salesCol))
		if name == "" || merr != nil || serr != nil {
			skipped++
			log.Warn().Str("file", filepath.Base(filePath)).Int("row", rows+skipped+1).
				Str("store", name).Msg("skipping unparseable sales row")
			continue
		}

		storeID, err := resolver.resolve(ctx, tx, name)
		if err != nil {
			return err
		}

		trx, _ := strconv.ParseInt(field(record, trxCol), 10, 64)
		if _, err := stmt.ExecContext(ctx, storeID, month, netSales, trx); err != nil {
			return fmt.Errorf("failed to upsert sales for %s %s: %w", name, month.Format("2006-01"), err)
		}
		rows++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info().Str("file", filepath.Base(filePath)).Int("rows", rows).Int("skipped", skipped).
		Msg("loaded monthly sales")
	return nil
}

// processBudgets upserts one target amount per store-month.
func (p *Processor) processBudgets(ctx context.Context, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}
	colMap := mapColumns(header)
	storeCol, ok := pick(colMap, "store", "store_name", "name")
	if !ok {
		return fmt.Errorf("missing required column: store")
	}
	monthCol, ok := pick(colMap, "month", "period")
	if !ok {
		return fmt.Errorf("missing required column: month")
	}
	amountCol, ok := pick(colMap, "amount", "budget", "target")
	if !ok {
		return fmt.Errorf("missing required column: amount")
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO budgets (store_id, month, amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (store_id, month)
		DO UPDATE SET amount = EXCLUDED.amount
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	resolver := newStoreResolver()
	rows, skipped := 0, 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read record: %w", err)
		}

		name := field(record, storeCol)
		month, merr := parseMonth(field(record, monthCol))
		amount, aerr := parseAmount(field(record, amountCol))
		if name == "" || merr != nil || aerr != nil {
			skipped++
			log.Warn().Str("file", filepath.Base(filePath)).Int("row", rows+skipped+1).
				Str("store", name).Msg("skipping unparseable budget row")
			continue
		}

		storeID, err := resolver.resolve(ctx, tx, name)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, storeID, month, amount); err != nil {
			return fmt.Errorf("failed to upsert budget for %s %s: %w", name, month.Format("2006-01"), err)
		}
		rows++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info().Str("file", filepath.Base(filePath)).Int("rows", rows).Int("skipped", skipped).
		Msg("loaded budgets")
	return nil
}

// storeResolver maps store names to ids within one transaction, creating
// missing stores as it goes.
type storeResolver struct {
	cache map[string]int64
}

func newStoreResolver() *storeResolver {
	return &storeResolver{cache: make(map[string]int64)}
}

func (r *storeResolver) resolve(ctx context.Context, tx *sql.Tx, name string) (int64, error) {
	if id, ok := r.cache[name]; ok {
		return id, nil
	}

	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM stores WHERE name = $1`, name).Scan(&id)
	if err == sql.ErrNoRows {
		err = tx.QueryRowContext(ctx, `
			INSERT INTO stores (name, active, updated_at)
			VALUES ($1, TRUE, NOW())
			RETURNING id
		`, name).Scan(&id)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve store %q: %w", name, err)
	}

	r.cache[name] = id
	return id, nil
}

func mapColumns(header []string) map[string]int {
	colMap := make(map[string]int, len(header))
	for i, h := range header {
		colMap[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return colMap
}

// pick returns the index of the first header name present in colMap. Exports
// from the two upstream systems label the same columns differently.
func pick(colMap map[string]int, names ...string) (int, bool) {
	for _, name := range names {
		if idx, ok := colMap[name]; ok {
			return idx, true
		}
	}
	return -1, false
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

var monthFormats = []string{"2006-01", "2006-01-02", "01/2006", "Jan-06", "Jan 2006"}

// parseMonth reads a calendar month and normalizes it to midnight UTC on the
// first of the month, the key monthly_sales and budgets are stored under.
func parseMonth(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty month")
	}
	for _, format := range monthFormats {
		if t, err := time.Parse(format, s); err == nil {
			return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized month format: %s", s)
}

var dateFormats = []string{"2006-01-02", "02/01/2006", time.RFC3339}

func parseDate(s string) *time.Time {
	if s == "" || s == "0000-00-00" {
		return nil
	}
	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return &t
		}
	}
	return nil
}

// parseAmount reads a money value with either separator convention: a lone
// comma is a decimal mark (regional exports), the later of dot and comma wins
// when both appear.
func parseAmount(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	dot := strings.LastIndex(s, ".")
	comma := strings.LastIndex(s, ",")
	switch {
	case dot >= 0 && comma >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case dot >= 0 && comma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0 && strings.Count(s, ",") > 1:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		s = strings.Replace(s, ",", ".", 1)
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	return strconv.ParseFloat(s, 64)
}

// parseActive treats an absent flag as active so master files without the
// column keep every store in scope.
func parseActive(s string) bool {
	switch strings.ToLower(s) {
	case "", "1", "true", "yes", "y":
		return true
	}
	return false
}

func toNullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

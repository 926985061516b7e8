package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"hayase/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// CSVImporter reads catalog CSV exports and inserts/updates products.
//
// Columns: id,name,description,price,stock,images,manufacturer,scale,condition,category,is_featured.
// price is in rupees; images are separated by ';'. A row with no name that
// only carries images continues the product above it.
type CSVImporter struct {
	reader      *csv.Reader
	productRepo ProductWriter
	logger      *zap.Logger
}

func NewCSVImporter(r io.Reader, repo ProductWriter, logger *zap.Logger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSVImporter{
		reader:      csvr,
		productRepo: repo,
		logger:      logger.Named("importer"),
	}
}

type csvRow struct {
	line    int
	product domain.Product
	err     error
}

// Run parses CSV rows and upserts one product per named row.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["name"]; !ok {
		return 0, errors.New("missing name column")
	}
	if _, ok := index["price"]; !ok {
		return 0, errors.New("missing price column")
	}

	var (
		current  *csvRow
		imported int
		line     = 1
	)

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return imported, fmt.Errorf("read row %d: %w", line, err)
		}

		row := parseRow(record, index, line)
		if row == nil {
			continue
		}

		if row.product.Name != "" {
			if current != nil {
				if err := i.save(ctx, current); err != nil {
					return imported, err
				}
				imported++
			}
			current = row
			continue
		}

		// Continuation rows (images) belong to the current product.
		if current != nil {
			current.product.Images = append(current.product.Images, row.product.Images...)
		}
	}

	if current != nil {
		if err := i.save(ctx, current); err != nil {
			return imported, err
		}
		imported++
	}

	i.logger.Info("import finished", zap.Int("products", imported))
	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) error {
	p := row.product
	if row.err != nil {
		return fmt.Errorf("row %d (%s): %w", row.line, p.Name, row.err)
	}
	if p.ID != "" {
		if _, err := uuid.Parse(p.ID); err != nil {
			return fmt.Errorf("row %d (%s): invalid id %q", row.line, p.Name, p.ID)
		}
	}

	saved, err := i.productRepo.Upsert(ctx, p)
	if err != nil {
		return fmt.Errorf("upsert product %q: %w", p.Name, err)
	}
	i.logger.Debug("product imported", zap.String("id", saved.ID), zap.String("name", saved.Name))
	return nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int, line int) *csvRow {
	name := pick(record, index, "name")
	images := splitImages(pick(record, index, "images"))
	if name == "" && len(images) == 0 {
		return nil
	}

	row := &csvRow{line: line}
	row.product = domain.Product{
		ID:           pick(record, index, "id"),
		Name:         name,
		Description:  pick(record, index, "description"),
		Images:       images,
		Manufacturer: pick(record, index, "manufacturer"),
		Scale:        pick(record, index, "scale"),
		Condition:    pick(record, index, "condition"),
		Category:     pick(record, index, "category"),
	}
	if name == "" {
		return row
	}

	price, err := domain.ParseMoney(pick(record, index, "price"))
	switch {
	case err != nil:
		row.err = err
	case price < 0:
		row.err = fmt.Errorf("negative price %s", price)
	}
	row.product.Price = price

	if s := pick(record, index, "stock"); s != "" {
		stock, err := strconv.Atoi(s)
		if err != nil || stock < 0 {
			row.err = errors.Join(row.err, fmt.Errorf("invalid stock %q", s))
		}
		row.product.Stock = stock
	}
	if s := pick(record, index, "is_featured"); s != "" {
		featured, err := strconv.ParseBool(s)
		if err != nil {
			row.err = errors.Join(row.err, fmt.Errorf("invalid is_featured %q", s))
		}
		row.product.IsFeatured = featured
	}
	return row
}

func splitImages(s string) []string {
	var out []string
	for _, u := range strings.Split(s, ";") {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}

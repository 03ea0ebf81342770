package data

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"pv-configurator/internal/model"
	"pv-configurator/internal/registry"

	"github.com/rs/zerolog/log"
)

// LibraryKind tells the loader which parameter set a SAM file carries.
type LibraryKind string

const (
	SandiaModules   LibraryKind = "sandia_modules"
	SandiaInverters LibraryKind = "inverters"
)

// LibrarySpec says where to find one SAM component library.
type LibrarySpec struct {
	Name string // e.g. "SandiaMod", "CECInverter"
	Kind LibraryKind
	File string // local CSV, relative to the SAM directory unless absolute
	URL  string // download location when File is missing
}

// ComponentDB holds parsed SAM libraries keyed by library name. It is read-only
// after loading and implements registry.Source.
type ComponentDB struct {
	modules   map[string]map[string]*model.SandiaModule
	inverters map[string]map[string]*model.SandiaInverter
}

func NewComponentDB() *ComponentDB {
	return &ComponentDB{
		modules:   map[string]map[string]*model.SandiaModule{},
		inverters: map[string]map[string]*model.SandiaInverter{},
	}
}

func (db *ComponentDB) Module(library, id string) (*model.SandiaModule, bool) {
	m, ok := db.modules[library][id]
	return m, ok
}

func (db *ComponentDB) Inverter(library, id string) (*model.SandiaInverter, bool) {
	inv, ok := db.inverters[library][id]
	return inv, ok
}

// Len returns the number of components loaded for a library.
func (db *ComponentDB) Len(library string) int {
	return len(db.modules[library]) + len(db.inverters[library])
}

// AddModules registers an already-parsed module library.
func (db *ComponentDB) AddModules(library string, mods map[string]*model.SandiaModule) {
	db.modules[library] = mods
}

// AddInverters registers an already-parsed inverter library.
func (db *ComponentDB) AddInverters(library string, invs map[string]*model.SandiaInverter) {
	db.inverters[library] = invs
}

var _ registry.Source = (*ComponentDB)(nil)

// LoadComponentDB reads every library from dir, downloading the ones that are
// missing locally when a URL is configured.
func LoadComponentDB(ctx context.Context, dir string, specs []LibrarySpec, client *http.Client) (*ComponentDB, error) {
	db := NewComponentDB()
	for _, spec := range specs {
		r, closeFn, err := openLibrary(ctx, dir, spec, client)
		if err != nil {
			return nil, fmt.Errorf("library %s: %w", spec.Name, err)
		}
		err = db.Parse(spec, r)
		closeFn()
		if err != nil {
			return nil, fmt.Errorf("library %s: %w", spec.Name, err)
		}
		log.Info().Str("component", "sam").Str("library", spec.Name).Int("components", db.Len(spec.Name)).Msg("loaded component library")
	}
	return db, nil
}

// Parse reads one SAM CSV into the database under spec.Name.
func (db *ComponentDB) Parse(spec LibrarySpec, r io.Reader) error {
	switch spec.Kind {
	case SandiaModules:
		mods, err := ParseSandiaModules(r)
		if err != nil {
			return err
		}
		db.AddModules(spec.Name, mods)
	case SandiaInverters:
		invs, err := ParseInverters(r)
		if err != nil {
			return err
		}
		db.AddInverters(spec.Name, invs)
	default:
		return fmt.Errorf("unsupported library kind %q", spec.Kind)
	}
	return nil
}

func openLibrary(ctx context.Context, dir string, spec LibrarySpec, client *http.Client) (io.Reader, func(), error) {
	path := LibraryPath(dir, spec)
	if path != "" {
		f, err := os.Open(path)
		if err == nil {
			return f, func() { f.Close() }, nil
		}
		if !errors.Is(err, os.ErrNotExist) || spec.URL == "" {
			return nil, nil, err
		}
	}
	if spec.URL == "" {
		return nil, nil, fmt.Errorf("no file or url configured")
	}
	body, err := DownloadLibrary(ctx, client, spec.URL)
	if err != nil {
		return nil, nil, err
	}
	return bytes.NewReader(body), func() {}, nil
}

// LibraryPath resolves the local file of a library, or "" when none is configured.
func LibraryPath(dir string, spec LibrarySpec) string {
	if spec.File == "" {
		return ""
	}
	if filepath.IsAbs(spec.File) || dir == "" {
		return spec.File
	}
	return filepath.Join(dir, spec.File)
}

// DownloadLibrary fetches a SAM CSV.
func DownloadLibrary(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}
	log.Info().Str("component", "sam").Str("url", url).Int("bytes", len(body)).Dur("duration", time.Since(start)).Msg("downloaded component library")
	return body, nil
}

// SaveLibrary writes a downloaded library next to the others.
func SaveLibrary(dir string, spec LibrarySpec, body []byte) (string, error) {
	path := LibraryPath(dir, spec)
	if path == "" {
		return "", fmt.Errorf("library %s has no file configured", spec.Name)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("failed to write library file: %w", err)
	}
	return path, nil
}

// samTable is a SAM CSV after the units and SAM-identifier rows have been dropped.
type samTable struct {
	cols map[string]int
	rows [][]string
}

// readSAMTable reads the SAM layout: a header row, two metadata rows, then one
// component per row with its published name in the first column.
func readSAMTable(r io.Reader) (*samTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	t := &samTable{cols: make(map[string]int, len(header))}
	for i, h := range header {
		t.cols[normalizeColumn(h)] = i
	}
	for skip := 0; skip < 2; skip++ {
		if _, err := cr.Read(); err != nil {
			return nil, fmt.Errorf("failed to read metadata rows: %w", err)
		}
	}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) == 0 || strings.TrimSpace(rec[0]) == "" {
			continue
		}
		t.rows = append(t.rows, rec)
	}
	return t, nil
}

func normalizeColumn(h string) string {
	h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	return strings.ToLower(strings.ReplaceAll(h, " ", "_"))
}

// rowReader pulls typed values out of one row, keeping the first parse error.
type rowReader struct {
	t   *samTable
	row []string
	err error
}

func (rr *rowReader) str(col string) string {
	i, ok := rr.t.cols[col]
	if !ok || i >= len(rr.row) {
		return ""
	}
	return strings.TrimSpace(rr.row[i])
}

func (rr *rowReader) num(col string) float64 {
	s := rr.str(col)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil && rr.err == nil {
		rr.err = fmt.Errorf("column %s: %w", col, err)
	}
	return v
}

// ParseSandiaModules reads a SAM "Sandia Modules" library keyed by translated name.
func ParseSandiaModules(r io.Reader) (map[string]*model.SandiaModule, error) {
	t, err := readSAMTable(r)
	if err != nil {
		return nil, err
	}
	for _, col := range []string{"area", "isco", "impo", "vmpo", "cells_in_series"} {
		if _, ok := t.cols[col]; !ok {
			return nil, fmt.Errorf("not a Sandia module library: missing column %q", col)
		}
	}
	out := make(map[string]*model.SandiaModule, len(t.rows))
	for _, row := range t.rows {
		rr := &rowReader{t: t, row: row}
		m := &model.SandiaModule{
			Name:            strings.TrimSpace(row[0]),
			Area:            rr.num("area"),
			Material:        rr.str("material"),
			CellsInSeries:   rr.num("cells_in_series"),
			ParallelStrings: rr.num("parallel_strings"),
			Isco:            rr.num("isco"),
			Voco:            rr.num("voco"),
			Impo:            rr.num("impo"),
			Vmpo:            rr.num("vmpo"),
			Aisc:            rr.num("aisc"),
			Aimp:            rr.num("aimp"),
			C0:              rr.num("c0"),
			C1:              rr.num("c1"),
			C2:              rr.num("c2"),
			C3:              rr.num("c3"),
			Bvoco:           rr.num("bvoco"),
			Mbvoc:           rr.num("mbvoc"),
			Bvmpo:           rr.num("bvmpo"),
			Mbvmp:           rr.num("mbvmp"),
			N:               rr.num("n"),
			FD:              rr.num("fd"),
		}
		for i := range m.A {
			m.A[i] = rr.num(fmt.Sprintf("a%d", i))
		}
		for i := range m.B {
			m.B[i] = rr.num(fmt.Sprintf("b%d", i))
		}
		if rr.err != nil {
			return nil, fmt.Errorf("module %q: %w", m.Name, rr.err)
		}
		key := registry.TranslateName(m.Name)
		if _, dup := out[key]; !dup {
			out[key] = m
		}
	}
	return out, nil
}

// ParseInverters reads a SAM inverter library (CEC or Sandia) keyed by translated name.
func ParseInverters(r io.Reader) (map[string]*model.SandiaInverter, error) {
	t, err := readSAMTable(r)
	if err != nil {
		return nil, err
	}
	for _, col := range []string{"paco", "pdco", "vdco", "pso", "c0"} {
		if _, ok := t.cols[col]; !ok {
			return nil, fmt.Errorf("not an inverter library: missing column %q", col)
		}
	}
	out := make(map[string]*model.SandiaInverter, len(t.rows))
	for _, row := range t.rows {
		rr := &rowReader{t: t, row: row}
		inv := &model.SandiaInverter{
			Name:     strings.TrimSpace(row[0]),
			Vac:      rr.num("vac"),
			Paco:     rr.num("paco"),
			Pdco:     rr.num("pdco"),
			Vdco:     rr.num("vdco"),
			Pso:      rr.num("pso"),
			C0:       rr.num("c0"),
			C1:       rr.num("c1"),
			C2:       rr.num("c2"),
			C3:       rr.num("c3"),
			Pnt:      rr.num("pnt"),
			Vdcmax:   rr.num("vdcmax"),
			Idcmax:   rr.num("idcmax"),
			MpptLow:  rr.num("mppt_low"),
			MpptHigh: rr.num("mppt_high"),
		}
		if rr.err != nil {
			return nil, fmt.Errorf("inverter %q: %w", inv.Name, rr.err)
		}
		key := registry.TranslateName(inv.Name)
		if _, dup := out[key]; !dup {
			out[key] = inv
		}
	}
	return out, nil
}

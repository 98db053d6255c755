package convert

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tablecast/internal/choice"
	"tablecast/internal/mapping"
	"tablecast/internal/tableset"
	"tablecast/internal/xdoc"
)

// ErrRecordNotFound reports an identifier with no main-table row.
var ErrRecordNotFound = errors.New("no record found for identifier")

// idPrefix precedes submission identifiers on the wire.
const idPrefix = "uuid:"

// Assembler renders submission documents for the records of one loaded
// table set. It is read-only after construction and safe for concurrent
// use.
type Assembler struct {
	spec     *mapping.Spec
	tables   *tableset.Set
	cfg      Config
	resolver *choice.Resolver
	log      zerolog.Logger
}

// NewAssembler builds an Assembler over the mapping and tables.
func NewAssembler(spec *mapping.Spec, tables *tableset.Set, cfg Config, log zerolog.Logger) (*Assembler, error) {
	if cfg.FormID == "" {
		return nil, errors.New("form id must not be empty")
	}

	if _, ok := tables.Main(); !ok {
		return nil, fmt.Errorf("%w: no table named %q", tableset.ErrMainTableMissing, tables.MainName())
	}

	return &Assembler{
		spec:     spec,
		tables:   tables,
		cfg:      cfg,
		resolver: choice.New(spec, cfg.UseLabels, cfg.ChoiceMode, log),
		log:      log,
	}, nil
}

// Convert renders the document for one submission identifier. The
// phases run in a fixed order: root and form attributes, main-table
// fields, repeat groups, then the trailer. With several main rows
// sharing the identifier the first one wins.
func (a *Assembler) Convert(id string) (string, error) {
	main, _ := a.tables.Main()

	rows := main.MatchRows(tableset.IDColumn, id)
	if len(rows) == 0 {
		return "", fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}

	row := rows[0]

	a.log.Debug().Str("form_id", a.cfg.FormID).Str("id", id).Msg("building document")

	root := a.buildRoot()

	if err := a.populateMain(root, row); err != nil {
		return "", fmt.Errorf("record %s: %w", id, err)
	}

	if err := a.attachRepeats(root, id); err != nil {
		return "", fmt.Errorf("record %s: %w", id, err)
	}

	a.appendTrailer(root, row, id)

	return xdoc.Sanitize(xdoc.Marshal(root)), nil
}

// buildRoot creates the document root carrying the form identity and,
// when configured, the owner account block.
func (a *Assembler) buildRoot() *xdoc.Node {
	root := xdoc.New(a.cfg.FormID)
	root.SetAttr("id", a.cfg.FormID)

	version := a.cfg.FormVersion
	if version == "" {
		version = defaultVersion(time.Now())
	}

	root.SetAttr("version", version)

	if a.cfg.FormhubUUID != "" {
		root.EnsurePath([]string{"formhub", "uuid"}).Text = a.cfg.FormhubUUID
	}

	return root
}

// appendTrailer adds the closing elements: the form version marker, the
// instance identifier, and the superseded identifier when the record
// carries one.
func (a *Assembler) appendTrailer(root *xdoc.Node, row tableset.Row, id string) {
	root.AddChild("__version__").Text = a.cfg.FormVersionID

	meta := root.AddChild("meta")
	meta.AddChild("instanceID").Text = idPrefix + id

	if lineage := row.Value(tableset.LineageColumn); !lineage.IsAbsent() {
		meta.AddChild(tableset.LineageColumn).Text = ensureIDPrefix(lineage.Render())
	}
}

func ensureIDPrefix(s string) string {
	if strings.HasPrefix(s, idPrefix) {
		return s
	}

	return idPrefix + s
}

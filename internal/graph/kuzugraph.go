//go:build cgo

package graph

import (
	"context"
	"fmt"
	"os"

	kuzu "github.com/kuzudb/go-kuzu"
)

// KuzuGraph implements Store on top of an embedded KuzuDB instance. Unlike a
// conventional graph-database-backed store, it is deliberately run-scoped:
// spec.md's Non-goals forbid persisting analysis state across runs, so
// KuzuGraph always opens a throwaway database — either pure in-memory, or a
// temp directory removed in Close — never a path the caller chose to keep.
// It exists so the analysis can be re-run against an embedded graph engine
// (useful for very large repositories where Cypher-style traversal queries
// beat linear scans) without violating the no-persistence invariant.
type KuzuGraph struct {
	db      *kuzu.Database
	conn    *kuzu.Connection
	tmpDir  string // removed on Close when non-empty
}

var _ Store = (*KuzuGraph)(nil)

// NewKuzuGraph opens an ephemeral, in-process KuzuDB instance.
func NewKuzuGraph() (*KuzuGraph, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(":memory:", cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuGraph{db: db, conn: conn}, nil
}

// NewKuzuGraphScratch opens a KuzuDB instance backed by a fresh temp
// directory. The directory is removed when Close is called, so the graph
// never outlives the run that created it.
func NewKuzuGraphScratch() (*KuzuGraph, error) {
	dir, err := os.MkdirTemp("", "mycelium-kuzu-*")
	if err != nil {
		return nil, fmt.Errorf("kuzu: create scratch dir: %w", err)
	}
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(dir, cfg)
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		os.RemoveAll(dir)
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuGraph{db: db, conn: conn, tmpDir: dir}, nil
}

// Close releases the KuzuDB connection and database, and removes the
// scratch directory if one was created.
func (g *KuzuGraph) Close() error {
	if g.conn != nil {
		g.conn.Close()
	}
	if g.db != nil {
		g.db.Close()
	}
	if g.tmpDir != "" {
		os.RemoveAll(g.tmpDir)
	}
	return nil
}

var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS File(path STRING, language STRING, size INT64, lines INT64, PRIMARY KEY(path))`,
	`CREATE NODE TABLE IF NOT EXISTS Folder(path STRING, file_count INT64, PRIMARY KEY(path))`,
	`CREATE NODE TABLE IF NOT EXISTS Symbol(
		id STRING, name STRING, kind STRING, file STRING, line INT64,
		visibility STRING, exported BOOLEAN, parent STRING, language STRING,
		PRIMARY KEY(id)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Community(id STRING, label STRING, cohesion DOUBLE, primary_language STRING, PRIMARY KEY(id))`,
	`CREATE NODE TABLE IF NOT EXISTS Process(id STRING, entry STRING, terminal STRING, type STRING, total_confidence DOUBLE, PRIMARY KEY(id))`,
	`CREATE REL TABLE IF NOT EXISTS DEFINES(FROM File TO Symbol)`,
	`CREATE REL TABLE IF NOT EXISTS CALLS(FROM Symbol TO Symbol, confidence DOUBLE, tier STRING, reason STRING, line INT64)`,
	`CREATE REL TABLE IF NOT EXISTS IMPORTS(FROM File TO File, statement STRING)`,
	`CREATE REL TABLE IF NOT EXISTS MEMBER_OF(FROM Symbol TO Community)`,
	`CREATE REL TABLE IF NOT EXISTS STEP_WITH_ORDER(FROM Process TO Symbol, step_index INT64)`,
}

func (g *KuzuGraph) InitSchema(_ context.Context) error {
	for _, stmt := range ddlStatements {
		res, err := g.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

func (g *KuzuGraph) exec(cypher string, params map[string]any) error {
	stmt, err := g.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()
	res, err := g.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

func (g *KuzuGraph) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error
	if len(params) == 0 {
		res, err = g.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = g.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = g.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

func (g *KuzuGraph) AddFile(_ context.Context, f File) error {
	return g.exec(
		"MERGE (f:File {path: $path}) SET f.language = $lang, f.size = $size, f.lines = $lines",
		map[string]any{"path": f.Path, "lang": string(f.Language), "size": f.Size, "lines": int64(f.Lines)},
	)
}

func (g *KuzuGraph) AddFolder(_ context.Context, f Folder) error {
	return g.exec(
		"MERGE (f:Folder {path: $path}) SET f.file_count = $count",
		map[string]any{"path": f.Path, "count": int64(f.FileCount)},
	)
}

func (g *KuzuGraph) AddSymbol(_ context.Context, sym Symbol) error {
	if err := g.exec("MERGE (f:File {path: $path})", map[string]any{"path": sym.File}); err != nil {
		return err
	}
	if err := g.exec(
		`CREATE (s:Symbol {
			id: $id, name: $name, kind: $kind, file: $file, line: $line,
			visibility: $vis, exported: $exported, parent: $parent, language: $lang
		})`,
		map[string]any{
			"id": sym.ID, "name": sym.Name, "kind": string(sym.Kind), "file": sym.File,
			"line": int64(sym.Line), "vis": string(sym.Visibility), "exported": sym.Exported,
			"parent": sym.Parent, "lang": string(sym.Language),
		},
	); err != nil {
		return err
	}
	return g.exec(
		`MATCH (f:File {path: $file}), (s:Symbol {id: $id}) CREATE (f)-[:DEFINES]->(s)`,
		map[string]any{"file": sym.File, "id": sym.ID},
	)
}

func (g *KuzuGraph) AddCallEdge(_ context.Context, e CallEdge) error {
	return g.exec(
		`MATCH (a:Symbol {id: $from}), (b:Symbol {id: $to})
		 CREATE (a)-[:CALLS {confidence: $conf, tier: $tier, reason: $reason, line: $line}]->(b)`,
		map[string]any{"from": e.From, "to": e.To, "conf": e.Confidence, "tier": e.Tier, "reason": e.Reason, "line": int64(e.Line)},
	)
}

func (g *KuzuGraph) AddImportEdge(_ context.Context, e ImportEdge) error {
	return g.exec(
		`MATCH (a:File {path: $from}), (b:File {path: $to})
		 CREATE (a)-[:IMPORTS {statement: $stmt}]->(b)`,
		map[string]any{"from": e.From, "to": e.To, "stmt": e.Statement},
	)
}

// AddProjectRef and AddPackageRef have no dedicated node tables in the
// embedded schema and are no-ops here to satisfy Store: with this backend,
// .NET project and package references are not stored, and a run's export
// carries none.
func (g *KuzuGraph) AddProjectRef(_ context.Context, _ ProjectRef) error { return nil }
func (g *KuzuGraph) AddPackageRef(_ context.Context, _ PackageRef) error { return nil }

func (g *KuzuGraph) AddCommunity(_ context.Context, c Community) error {
	if err := g.exec(
		"CREATE (c:Community {id: $id, label: $label, cohesion: $cohesion, primary_language: $lang})",
		map[string]any{"id": c.ID, "label": c.Label, "cohesion": c.Cohesion, "lang": string(c.PrimaryLanguage)},
	); err != nil {
		return err
	}
	for _, m := range c.Members {
		if err := g.exec(
			`MATCH (s:Symbol {id: $sym}), (c:Community {id: $cid}) CREATE (s)-[:MEMBER_OF]->(c)`,
			map[string]any{"sym": m, "cid": c.ID},
		); err != nil {
			return err
		}
	}
	return nil
}

func (g *KuzuGraph) AddProcess(_ context.Context, p Process) error {
	if err := g.exec(
		"CREATE (p:Process {id: $id, entry: $entry, terminal: $terminal, type: $type, total_confidence: $conf})",
		map[string]any{"id": p.ID, "entry": p.Entry, "terminal": p.Terminal, "type": p.Type, "conf": p.TotalConfidence},
	); err != nil {
		return err
	}
	for i, step := range p.Steps {
		if err := g.exec(
			`MATCH (p:Process {id: $pid}), (s:Symbol {id: $sym})
			 CREATE (p)-[:STEP_WITH_ORDER {step_index: $idx}]->(s)`,
			map[string]any{"pid": p.ID, "sym": step, "idx": int64(i)},
		); err != nil {
			return err
		}
	}
	return nil
}

func (g *KuzuGraph) AddGenericEdge(_ context.Context, _ GenericEdge) error { return nil }

func (g *KuzuGraph) HasNode(_ context.Context, id string) (bool, error) {
	rows, err := g.query("MATCH (s:Symbol {id: $id}) RETURN s.id", map[string]any{"id": id})
	if err != nil {
		return false, err
	}
	if len(rows) > 0 {
		return true, nil
	}
	rows, err = g.query("MATCH (f:File {path: $id}) RETURN f.path", map[string]any{"id": id})
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

func (g *KuzuGraph) SymbolsInFile(_ context.Context, file string) ([]Symbol, error) {
	rows, err := g.query(
		`MATCH (s:Symbol {file: $file})
		 RETURN s.id, s.name, s.kind, s.file, s.line, s.visibility, s.exported, s.parent, s.language`,
		map[string]any{"file": file},
	)
	if err != nil {
		return nil, err
	}
	out := make([]Symbol, 0, len(rows))
	for _, r := range rows {
		out = append(out, rowToSymbol(r))
	}
	return out, nil
}

func (g *KuzuGraph) CallersOf(_ context.Context, symbolID string) ([]CallEdge, error) {
	rows, err := g.query(
		`MATCH (a:Symbol)-[r:CALLS]->(b:Symbol {id: $id})
		 RETURN a.id, b.id, r.confidence, r.tier, r.reason, r.line`,
		map[string]any{"id": symbolID},
	)
	if err != nil {
		return nil, err
	}
	return rowsToCallEdges(rows), nil
}

func (g *KuzuGraph) CalleesOf(_ context.Context, symbolID string) ([]CallEdge, error) {
	rows, err := g.query(
		`MATCH (a:Symbol {id: $id})-[r:CALLS]->(b:Symbol)
		 RETURN a.id, b.id, r.confidence, r.tier, r.reason, r.line`,
		map[string]any{"id": symbolID},
	)
	if err != nil {
		return nil, err
	}
	return rowsToCallEdges(rows), nil
}

func (g *KuzuGraph) AllFiles(_ context.Context) ([]File, error) {
	rows, err := g.query("MATCH (f:File) RETURN f.path, f.language, f.size, f.lines", nil)
	if err != nil {
		return nil, err
	}
	out := make([]File, 0, len(rows))
	for _, r := range rows {
		out = append(out, File{Path: toString(r[0]), Language: Language(toString(r[1])), Size: int64(toInt(r[2])), Lines: toInt(r[3])})
	}
	return out, nil
}

func (g *KuzuGraph) AllFolders(_ context.Context) ([]Folder, error) {
	rows, err := g.query("MATCH (f:Folder) RETURN f.path, f.file_count", nil)
	if err != nil {
		return nil, err
	}
	out := make([]Folder, 0, len(rows))
	for _, r := range rows {
		out = append(out, Folder{Path: toString(r[0]), FileCount: toInt(r[1])})
	}
	return out, nil
}

func (g *KuzuGraph) AllSymbols(_ context.Context) ([]Symbol, error) {
	rows, err := g.query(
		"MATCH (s:Symbol) RETURN s.id, s.name, s.kind, s.file, s.line, s.visibility, s.exported, s.parent, s.language", nil,
	)
	if err != nil {
		return nil, err
	}
	out := make([]Symbol, 0, len(rows))
	for _, r := range rows {
		out = append(out, rowToSymbol(r))
	}
	return out, nil
}

func (g *KuzuGraph) AllCallEdges(_ context.Context) ([]CallEdge, error) {
	rows, err := g.query("MATCH (a:Symbol)-[r:CALLS]->(b:Symbol) RETURN a.id, b.id, r.confidence, r.tier, r.reason, r.line", nil)
	if err != nil {
		return nil, err
	}
	return rowsToCallEdges(rows), nil
}

func (g *KuzuGraph) AllImportEdges(_ context.Context) ([]ImportEdge, error) {
	rows, err := g.query("MATCH (a:File)-[r:IMPORTS]->(b:File) RETURN a.path, b.path, r.statement", nil)
	if err != nil {
		return nil, err
	}
	out := make([]ImportEdge, 0, len(rows))
	for _, r := range rows {
		out = append(out, ImportEdge{From: toString(r[0]), To: toString(r[1]), Statement: toString(r[2])})
	}
	return out, nil
}

// AllProjectRefs/AllPackageRefs always return empty: see AddProjectRef.
func (g *KuzuGraph) AllProjectRefs(_ context.Context) ([]ProjectRef, error) { return nil, nil }
func (g *KuzuGraph) AllPackageRefs(_ context.Context) ([]PackageRef, error) { return nil, nil }

func (g *KuzuGraph) AllCommunities(_ context.Context) ([]Community, error) {
	rows, err := g.query("MATCH (c:Community) RETURN c.id, c.label, c.cohesion, c.primary_language", nil)
	if err != nil {
		return nil, err
	}
	out := make([]Community, 0, len(rows))
	for _, r := range rows {
		c := Community{ID: toString(r[0]), Label: toString(r[1]), Cohesion: toFloat64(r[2]), PrimaryLanguage: Language(toString(r[3]))}
		memberRows, err := g.query(
			"MATCH (s:Symbol)-[:MEMBER_OF]->(c:Community {id: $id}) RETURN s.id", map[string]any{"id": c.ID},
		)
		if err == nil {
			for _, mr := range memberRows {
				c.Members = append(c.Members, toString(mr[0]))
			}
		}
		out = append(out, c)
	}
	return out, nil
}

func (g *KuzuGraph) AllProcesses(_ context.Context) ([]Process, error) {
	rows, err := g.query("MATCH (p:Process) RETURN p.id, p.entry, p.terminal, p.type, p.total_confidence", nil)
	if err != nil {
		return nil, err
	}
	out := make([]Process, 0, len(rows))
	for _, r := range rows {
		p := Process{ID: toString(r[0]), Entry: toString(r[1]), Terminal: toString(r[2]), Type: toString(r[3]), TotalConfidence: toFloat64(r[4])}
		stepRows, err := g.query(
			`MATCH (p:Process {id: $id})-[r:STEP_WITH_ORDER]->(s:Symbol)
			 RETURN s.id, r.step_index ORDER BY r.step_index`,
			map[string]any{"id": p.ID},
		)
		if err == nil {
			for _, sr := range stepRows {
				p.Steps = append(p.Steps, toString(sr[0]))
			}
		}
		out = append(out, p)
	}
	return out, nil
}

func rowToSymbol(r []any) Symbol {
	return Symbol{
		ID: toString(r[0]), Name: toString(r[1]), Kind: SymbolKind(toString(r[2])), File: toString(r[3]),
		Line: toInt(r[4]), Visibility: Visibility(toString(r[5])), Exported: toBool(r[6]),
		Parent: toString(r[7]), Language: Language(toString(r[8])),
	}
}

func rowsToCallEdges(rows [][]any) []CallEdge {
	out := make([]CallEdge, 0, len(rows))
	for _, r := range rows {
		out = append(out, CallEdge{
			From: toString(r[0]), To: toString(r[1]), Confidence: toFloat64(r[2]),
			Tier: toString(r[3]), Reason: toString(r[4]), Line: toInt(r[5]),
		})
	}
	return out
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func toBool(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return false
}

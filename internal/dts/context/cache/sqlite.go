package cache

import (
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/dekarrin/rezi"
	"github.com/dkrn/dts-ls/internal/dts/token"
	"modernc.org/sqlite"
)

// SQLite is a Store persisted to a SQLite database file, grounded on
// server/dao/sqlite's store-plus-repository shape: one *sql.DB, one table,
// entries encoded with rezi and stored base64-in-TEXT the same way
// sqlite.go's convertToDB_GameStatePtr does for an encoding.BinaryMarshaler
// value.
type SQLite struct {
	db *sql.DB
}

// tokenRecord is the cache's on-disk shape for one token.Token. Decoded is
// carried as two fields (a discriminant plus a string form) since rezi
// encodes concrete types, not the bare `any` Token.Decoded holds; Origin is
// always nil for cached tokens (caching happens at the lex stage, before
// macro expansion can produce an ExpansionOrigin) so it's dropped entirely.
type tokenRecord struct {
	Class      int
	Lexeme     string
	DecodedTag int // 0 none, 1 int64, 2 string, 3 rune
	DecodedInt int64
	DecodedStr string
	URI        string
	StartLine  int
	StartCol   int
	EndLine    int
	EndCol     int
	FullLine   string
}

type tokenRecordSet struct {
	Tokens []tokenRecord
}

func NewSQLite(file string) (*SQLite, error) {
	s := &SQLite{}
	var err error
	s.db, err = sql.Open("sqlite", file)
	if err != nil {
		return nil, wrapCacheDBError(err)
	}
	if err := s.init(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLite) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS token_cache (
		hash TEXT NOT NULL PRIMARY KEY,
		data TEXT NOT NULL
	);`)
	if err != nil {
		return wrapCacheDBError(err)
	}
	return nil
}

func (s *SQLite) GetTokens(hash string) ([]token.Token, bool) {
	row := s.db.QueryRow(`SELECT data FROM token_cache WHERE hash = ?`, hash)
	var encoded string
	if err := row.Scan(&encoded); err != nil {
		return nil, false
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, false
	}
	var set tokenRecordSet
	if _, err := rezi.DecBinary(raw, &set); err != nil {
		return nil, false
	}
	return fromRecords(set.Tokens), true
}

func (s *SQLite) PutTokens(hash string, toks []token.Token) {
	set := tokenRecordSet{Tokens: toRecords(toks)}
	raw := rezi.EncBinary(&set)
	encoded := base64.StdEncoding.EncodeToString(raw)
	_, _ = s.db.Exec(`INSERT INTO token_cache (hash, data) VALUES (?, ?)
		ON CONFLICT(hash) DO UPDATE SET data = excluded.data`, hash, encoded)
}

func (s *SQLite) Reset() {
	_, _ = s.db.Exec(`DELETE FROM token_cache`)
}

func toRecords(toks []token.Token) []tokenRecord {
	out := make([]tokenRecord, len(toks))
	for i, t := range toks {
		r := tokenRecord{
			Class:     int(t.Class),
			Lexeme:    t.Lexeme,
			URI:       t.Range.URI,
			StartLine: t.Range.Start.Line,
			StartCol:  t.Range.Start.Col,
			EndLine:   t.Range.End.Line,
			EndCol:    t.Range.End.Col,
			FullLine:  t.FullLine,
		}
		switch d := t.Decoded.(type) {
		case int64:
			r.DecodedTag, r.DecodedInt = 1, d
		case string:
			r.DecodedTag, r.DecodedStr = 2, d
		case rune:
			r.DecodedTag, r.DecodedInt = 3, int64(d)
		}
		out[i] = r
	}
	return out
}

func fromRecords(recs []tokenRecord) []token.Token {
	out := make([]token.Token, len(recs))
	for i, r := range recs {
		t := token.Token{
			Class:  token.Class(r.Class),
			Lexeme: r.Lexeme,
			Range: token.Range{
				URI:   r.URI,
				Start: token.Pos{Line: r.StartLine, Col: r.StartCol},
				End:   token.Pos{Line: r.EndLine, Col: r.EndCol},
			},
			FullLine: r.FullLine,
		}
		switch r.DecodedTag {
		case 1:
			t.Decoded = r.DecodedInt
		case 2:
			t.Decoded = r.DecodedStr
		case 3:
			t.Decoded = rune(r.DecodedInt)
		}
		out[i] = t
	}
	return out
}

func wrapCacheDBError(err error) error {
	sqliteErr := &sqlite.Error{}
	if errors.As(err, &sqliteErr) {
		return fmt.Errorf("%s", sqlite.ErrorCodeString[sqliteErr.Code()])
	}
	return err
}

var _ Store = (*SQLite)(nil)

package gateway

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/yungbote/saarthak-backend/internal/domain/contact"
	"github.com/yungbote/saarthak-backend/internal/domain/media"
)

// Table names a row collection reachable through the gateway.
type Table string

const (
	TableVideos   Table = "videos"
	TablePosters  Table = "posters"
	TableContacts Table = "contact_submissions"
)

func Tables() []Table { return []Table{TableVideos, TablePosters, TableContacts} }

type tableSpec struct {
	model    func() any
	columns  map[string]bool // filterable and orderable
	writable map[string]bool
}

func set(cols ...string) map[string]bool {
	out := make(map[string]bool, len(cols))
	for _, c := range cols {
		out[c] = true
	}
	return out
}

var assetColumns = []string{"id", "title", "page_assignment", "display_order", "is_active", "created_at", "updated_at"}
var assetWritable = []string{"title", "description", "page_assignment", "display_order", "is_active"}

var registry = map[Table]tableSpec{
	TableVideos: {
		model:    func() any { return &media.Video{} },
		columns:  set(append(assetColumns, "video_type")...),
		writable: set(append(assetWritable, "video_url", "video_type")...),
	},
	TablePosters: {
		model:    func() any { return &media.Poster{} },
		columns:  set(assetColumns...),
		writable: set(append(assetWritable, "image_url")...),
	},
	TableContacts: {
		model:    func() any { return &contact.Submission{} },
		columns:  set("id", "email", "election_type", "is_read", "created_at"),
		writable: set("is_read"),
	},
}

func lookup(table Table) (tableSpec, error) {
	spec, ok := registry[table]
	if !ok {
		return tableSpec{}, fmt.Errorf("unknown table %q", table)
	}
	return spec, nil
}

// checkRow verifies row is a pointer to the table's model type.
func (s tableSpec) checkRow(row any) error {
	want := reflect.TypeOf(s.model())
	if got := reflect.TypeOf(row); got != want {
		return fmt.Errorf("row type %v does not match %v", got, want)
	}
	return nil
}

// Filter is a conjunction of column predicates. A key is either a bare column
// (equality, or IN when the value is a slice) or "column op" with op one of
// = != < <= > >=.
type Filter map[string]any

type Order struct {
	Column string
	Desc   bool
}

var filterOps = map[string]bool{"=": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true}

type predicate struct {
	column string
	op     string
	value  any
}

func (s tableSpec) predicates(f Filter) ([]predicate, error) {
	keys := make([]string, 0, len(f))
	for key := range f {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]predicate, 0, len(f))
	for _, key := range keys {
		val := f[key]
		fields := strings.Fields(key)
		var p predicate
		switch len(fields) {
		case 1:
			p = predicate{column: fields[0], op: "=", value: val}
			if val != nil && reflect.TypeOf(val).Kind() == reflect.Slice {
				p.op = "IN"
			}
		case 2:
			if !filterOps[fields[1]] {
				return nil, fmt.Errorf("unsupported filter operator %q", fields[1])
			}
			p = predicate{column: fields[0], op: fields[1], value: val}
		default:
			return nil, fmt.Errorf("malformed filter key %q", key)
		}
		if !s.columns[p.column] {
			return nil, fmt.Errorf("column %q is not filterable", p.column)
		}
		out = append(out, p)
	}
	return out, nil
}

func (s tableSpec) orderClauses(orders []Order) ([]string, error) {
	out := make([]string, 0, len(orders))
	for _, o := range orders {
		if !s.columns[o.Column] {
			return nil, fmt.Errorf("column %q is not orderable", o.Column)
		}
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		out = append(out, o.Column+" "+dir)
	}
	return out, nil
}

func (s tableSpec) checkPatch(patch map[string]any) error {
	if len(patch) == 0 {
		return fmt.Errorf("empty patch")
	}
	for col := range patch {
		if !s.writable[col] {
			return fmt.Errorf("column %q is not writable", col)
		}
	}
	return nil
}

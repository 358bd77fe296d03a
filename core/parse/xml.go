// core/parse/xml.go
package parse

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"geneannot-core/diag"
	"geneannot-core/record"
)

// pathStep is one element of a record path, e.g. entry[@dataset=Swiss-Prot].
type pathStep struct {
	tag   string
	attrs map[string]string
}

var attrFilterRE = regexp.MustCompile(`\[@([\w:.-]+)=["']?([^\]"']*)["']?\]`)

// parseRecordPath parses "/root/entry[@k=v]". The first step names the
// document root.
func parseRecordPath(s string) ([]pathStep, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("parse: XML requires record_path")
	}
	var steps []pathStep
	for _, part := range strings.Split(s, "/") {
		if part == "" {
			continue
		}
		st := pathStep{attrs: map[string]string{}}
		tag := part
		if i := strings.IndexByte(part, '['); i >= 0 {
			tag = part[:i]
			rest := part[i:]
			ms := attrFilterRE.FindAllStringSubmatchIndex(rest, -1)
			consumed := 0
			for _, m := range ms {
				if m[0] != consumed {
					return nil, fmt.Errorf("parse: bad record_path step %q", part)
				}
				st.attrs[rest[m[2]:m[3]]] = rest[m[4]:m[5]]
				consumed = m[1]
			}
			if consumed != len(rest) {
				return nil, fmt.Errorf("parse: bad record_path step %q", part)
			}
		}
		if tag == "" {
			return nil, fmt.Errorf("parse: empty tag in record_path %q", s)
		}
		st.tag = tag
		steps = append(steps, st)
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("parse: empty record_path %q", s)
	}
	return steps, nil
}

func (st pathStep) matches(el xml.StartElement) bool {
	if el.Name.Local != st.tag {
		return false
	}
	for k, want := range st.attrs {
		found := false
		for _, a := range el.Attr {
			if a.Name.Local == k && a.Value == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// xmlParser emits one record per element matched by the record path.
// Record-element attributes become fields by name; leaf children become
// fields by tag, their attributes "tag@attr". Repeats become lists.
type xmlParser struct {
	p    Params
	path []pathStep
	rep  *diag.Report
}

type xmlFrame struct {
	el       xml.StartElement
	text     strings.Builder
	hasChild bool
}

func (x *xmlParser) Parse(ctx context.Context, name string, r io.Reader, emit Emit) error {
	dec := xml.NewDecoder(r)
	clean := newCleaner(x.p)

	var stack []*xmlFrame
	var rec record.Record
	recDepth := 0 // stack depth of the record element; 0 when outside

	put := func(field, raw string) {
		if v, ok := clean.value(strings.TrimSpace(raw)); ok {
			add(rec, field, v)
		}
	}

	for n := 0; ; n++ {
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) > 0 {
				stack[len(stack)-1].hasChild = true
			}
			stack = append(stack, &xmlFrame{el: t.Copy()})
			if recDepth == 0 {
				if x.onPath(stack) {
					recDepth = len(stack)
					rec = record.Record{}
					for _, a := range t.Attr {
						put(a.Name.Local, a.Value)
					}
				}
				continue
			}
			for _, a := range t.Attr {
				put(t.Name.Local+"@"+a.Name.Local, a.Value)
			}
		case xml.CharData:
			if recDepth > 0 && len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		case xml.EndElement:
			if len(stack) == 0 {
				continue
			}
			top := stack[len(stack)-1]
			depth := len(stack)
			stack = stack[:len(stack)-1]
			if recDepth == 0 {
				continue
			}
			if depth == recDepth {
				recDepth = 0
				if len(rec) == 0 {
					continue
				}
				x.rep.Parsed()
				if err := emit(rec); err != nil {
					return err
				}
				continue
			}
			if !top.hasChild {
				put(top.el.Name.Local, top.text.String())
			}
		}
	}
	if recDepth != 0 {
		x.rep.Addf(diag.KindParse, name, 0, "unterminated record element %q", x.path[len(x.path)-1].tag)
	}
	return nil
}

func (x *xmlParser) onPath(stack []*xmlFrame) bool {
	if len(stack) != len(x.path) {
		return false
	}
	for i, f := range stack {
		if !x.path[i].matches(f.el) {
			return false
		}
	}
	return true
}

// Package script runs line-oriented allocation scripts against a region.
//
// Each line holds one command; blank lines and lines starting with '#' are
// skipped:
//
//	alloc NAME SIZE
//	calloc NAME COUNT SIZE
//	realloc NAME SIZE
//	free NAME
//	fill NAME BYTE [N]
//	expect NAME TEXT
//	str NAME TEXT
//	append NAME TEXT
//	verify
//	dump
package script

import (
	"bufio"
	"bytes"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/QuangTung97/regionarena/allocator"
	"github.com/QuangTung97/regionarena/bytestr"
)

var (
	ErrSyntax      = errors.New("script: syntax error")
	ErrUnknownName = errors.New("script: unknown name")
	ErrNameInUse   = errors.New("script: name already bound")
	ErrWrongKind   = errors.New("script: wrong kind of handle")
	ErrExpect      = errors.New("script: expectation failed")
)

type binding struct {
	addr  allocator.Addr
	str   bytestr.String
	isStr bool
}

// Interpreter ...
type Interpreter struct {
	region *allocator.Region
	out    io.Writer
	log    *slog.Logger
	names  map[string]binding
}

// New returns an interpreter operating on r. dump writes to out.
func New(r *allocator.Region, out io.Writer, log *slog.Logger) *Interpreter {
	if log == nil {
		log = slog.Default()
	}
	return &Interpreter{
		region: r,
		out:    out,
		log:    log,
		names:  map[string]binding{},
	}
}

// Names returns the bound names in sorted order.
func (in *Interpreter) Names() []string {
	result := make([]string, 0, len(in.names))
	for name := range in.names {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// Lookup returns the region address currently bound to name.
func (in *Interpreter) Lookup(name string) (allocator.Addr, bool) {
	b, ok := in.names[name]
	if !ok {
		return 0, false
	}
	if b.isStr {
		return b.str.Addr(), true
	}
	return b.addr, true
}

// Run executes every line of src, stopping at the first error.
func (in *Interpreter) Run(src io.Reader) error {
	sc := bufio.NewScanner(src)
	for lineno := 1; sc.Scan(); lineno++ {
		if err := in.Exec(sc.Text()); err != nil {
			return errors.Wrapf(err, "line %d", lineno)
		}
	}
	return errors.Wrap(sc.Err(), "read script")
}

// Exec executes a single line.
func (in *Interpreter) Exec(line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimLeft(rest, " ")

	switch cmd {
	case "alloc":
		return in.alloc(rest)
	case "calloc":
		return in.calloc(rest)
	case "realloc":
		return in.realloc(rest)
	case "free":
		return in.free(rest)
	case "fill":
		return in.fill(rest)
	case "expect":
		return in.expect(rest)
	case "str":
		return in.str(rest)
	case "append":
		return in.append(rest)
	case "verify":
		return in.region.Verify()
	case "dump":
		return in.region.Dump(in.out)
	default:
		return errors.Wrapf(ErrSyntax, "unknown command %q", cmd)
	}
}

func args(rest string, n int) ([]string, error) {
	fields := strings.Fields(rest)
	if len(fields) != n {
		return nil, errors.Wrapf(ErrSyntax, "want %d arguments, got %d", n, len(fields))
	}
	return fields, nil
}

func parseSize(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, errors.Wrapf(ErrSyntax, "invalid size %q", s)
	}
	return uint32(v), nil
}

func (in *Interpreter) bind(name string, b binding) error {
	if _, ok := in.names[name]; ok {
		return errors.Wrapf(ErrNameInUse, "%q", name)
	}
	in.names[name] = b
	return nil
}

func (in *Interpreter) lookup(name string) (binding, error) {
	b, ok := in.names[name]
	if !ok {
		return binding{}, errors.Wrapf(ErrUnknownName, "%q", name)
	}
	return b, nil
}

func (in *Interpreter) lookupBlock(name string) (allocator.Addr, error) {
	b, err := in.lookup(name)
	if err != nil {
		return 0, err
	}
	if b.isStr {
		return 0, errors.Wrapf(ErrWrongKind, "%q is a string", name)
	}
	return b.addr, nil
}

func (in *Interpreter) lookupString(name string) (bytestr.String, error) {
	b, err := in.lookup(name)
	if err != nil {
		return bytestr.String{}, err
	}
	if !b.isStr {
		return bytestr.String{}, errors.Wrapf(ErrWrongKind, "%q is a block", name)
	}
	return b.str, nil
}

func (in *Interpreter) alloc(rest string) error {
	a, err := args(rest, 2)
	if err != nil {
		return err
	}
	size, err := parseSize(a[1])
	if err != nil {
		return err
	}
	if _, ok := in.names[a[0]]; ok {
		return errors.Wrapf(ErrNameInUse, "%q", a[0])
	}

	addr, ok := in.region.Allocate(size)
	if !ok {
		in.log.Warn("allocation failed", "name", a[0], "size", size)
		return nil
	}
	in.log.Debug("allocated", "name", a[0], "size", size, "addr", addr)
	return in.bind(a[0], binding{addr: addr})
}

func (in *Interpreter) calloc(rest string) error {
	a, err := args(rest, 3)
	if err != nil {
		return err
	}
	count, err := parseSize(a[1])
	if err != nil {
		return err
	}
	size, err := parseSize(a[2])
	if err != nil {
		return err
	}
	if _, ok := in.names[a[0]]; ok {
		return errors.Wrapf(ErrNameInUse, "%q", a[0])
	}

	addr, ok := in.region.ZeroAllocate(count, size)
	if !ok {
		in.log.Warn("allocation failed", "name", a[0], "count", count, "size", size)
		return nil
	}
	in.log.Debug("allocated zeroed", "name", a[0], "count", count, "size", size, "addr", addr)
	return in.bind(a[0], binding{addr: addr})
}

func (in *Interpreter) realloc(rest string) error {
	a, err := args(rest, 2)
	if err != nil {
		return err
	}
	size, err := parseSize(a[1])
	if err != nil {
		return err
	}
	addr, err := in.lookupBlock(a[0])
	if err != nil {
		return err
	}

	next, ok := in.region.Reallocate(addr, size)
	if !ok {
		in.log.Warn("reallocation failed", "name", a[0], "size", size)
		return nil
	}
	in.log.Debug("reallocated", "name", a[0], "size", size, "from", addr, "to", next)
	in.names[a[0]] = binding{addr: next}
	return nil
}

func (in *Interpreter) free(rest string) error {
	a, err := args(rest, 1)
	if err != nil {
		return err
	}
	b, err := in.lookup(a[0])
	if err != nil {
		return err
	}

	if b.isStr {
		b.str.Free()
	} else {
		in.region.Free(b.addr)
	}
	delete(in.names, a[0])
	in.log.Debug("freed", "name", a[0])
	return nil
}

func (in *Interpreter) fill(rest string) error {
	a := strings.Fields(rest)
	if len(a) != 2 && len(a) != 3 {
		return errors.Wrapf(ErrSyntax, "want 2 or 3 arguments, got %d", len(a))
	}
	if len(a[1]) != 1 {
		return errors.Wrapf(ErrSyntax, "fill byte must be a single character, got %q", a[1])
	}

	addr, err := in.lookupBlock(a[0])
	if err != nil {
		return err
	}
	block, ok := in.region.Block(addr)
	if !ok {
		return errors.Wrapf(ErrUnknownName, "%q is not allocated", a[0])
	}

	n := uint32(len(block))
	if len(a) == 3 {
		if n, err = parseSize(a[2]); err != nil {
			return err
		}
		if n > uint32(len(block)) {
			return errors.Wrapf(ErrSyntax, "fill %d bytes, block %q holds %d", n, a[0], len(block))
		}
	}

	copy(block, bytes.Repeat([]byte{a[1][0]}, int(n)))
	return nil
}

func (in *Interpreter) expect(rest string) error {
	name, text, _ := strings.Cut(rest, " ")
	b, err := in.lookup(name)
	if err != nil {
		return err
	}

	if b.isStr {
		if got := b.str.String(); got != text {
			return errors.Wrapf(ErrExpect, "%q holds %q, want %q", name, got, text)
		}
		return nil
	}

	block, ok := in.region.Block(b.addr)
	if !ok {
		return errors.Wrapf(ErrUnknownName, "%q is not allocated", name)
	}
	if !bytes.HasPrefix(block, []byte(text)) {
		n := min(len(block), len(text))
		return errors.Wrapf(ErrExpect, "%q starts with %q, want %q", name, allocator.Printable(block[:n]), text)
	}
	return nil
}

func (in *Interpreter) str(rest string) error {
	name, text, _ := strings.Cut(rest, " ")
	if name == "" {
		return errors.Wrap(ErrSyntax, "missing name")
	}
	if _, ok := in.names[name]; ok {
		return errors.Wrapf(ErrNameInUse, "%q", name)
	}

	s, ok := bytestr.NewFromText(in.region, text)
	if !ok {
		in.log.Warn("string allocation failed", "name", name, "len", len(text))
		return nil
	}
	in.log.Debug("created string", "name", name, "addr", s.Addr(), "len", s.Len())
	return in.bind(name, binding{str: s, isStr: true})
}

func (in *Interpreter) append(rest string) error {
	name, text, _ := strings.Cut(rest, " ")
	s, err := in.lookupString(name)
	if err != nil {
		return err
	}

	next, ok := s.AppendText(text)
	if !ok {
		in.log.Warn("string append failed", "name", name, "len", len(text))
		return nil
	}
	in.log.Debug("appended", "name", name, "from", s.Addr(), "to", next.Addr(), "len", next.Len())
	in.names[name] = binding{str: next, isStr: true}
	return nil
}

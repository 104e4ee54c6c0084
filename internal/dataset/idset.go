package dataset

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// IDSet：无序字符串集合（黑名单、诊断记录、候选集）
type IDSet map[string]struct{}

func NewIDSet(items ...string) IDSet {
	s := make(IDSet, len(items))
	for _, it := range items {
		s.Add(it)
	}
	return s
}

// Add：忽略空串
func (s IDSet) Add(v string) {
	if v == "" {
		return
	}
	s[v] = struct{}{}
}

func (s IDSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

func (s IDSet) Len() int { return len(s) }

func (s IDSet) Merge(o IDSet) {
	for v := range o {
		s[v] = struct{}{}
	}
}

func (s IDSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// ReadLines：读取 gzip 压缩的按行文本，去除首尾空白并跳过空行，保持原顺序
func ReadLines(r io.Reader) ([]string, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open gzip: %w", err)
	}
	defer zr.Close()
	sc := bufio.NewScanner(zr)
	sc.Buffer(make([]byte, 1024), 1024*1024)
	var out []string
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func LoadIDSet(r io.Reader) (IDSet, error) {
	lines, err := ReadLines(r)
	if err != nil {
		return nil, err
	}
	return NewIDSet(lines...), nil
}

// SaveIDSet：每项一行（排序后）写出并 gzip 压缩
func SaveIDSet(w io.Writer, s IDSet) error {
	zw := gzip.NewWriter(w)
	bw := bufio.NewWriter(zw)
	for _, v := range s.Sorted() {
		if _, err := bw.WriteString(v + "\n"); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return zw.Close()
}

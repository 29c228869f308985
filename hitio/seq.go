package hitio

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"

	"github.com/mudesheng/tiledaligner/psl"
)

// ReadFasta returns the sequences of a FASTA file keyed by name.
func ReadFasta(r io.Reader) (map[string]string, error) {
	fr := fasta.NewReader(r, linear.NewSeq("", nil, alphabet.DNA))
	out := make(map[string]string)
	for {
		s, err := fr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("[ReadFasta] %w", err)
		}
		ls, ok := s.(*linear.Seq)
		if !ok {
			return nil, fmt.Errorf("[ReadFasta] unexpected sequence type %T", s)
		}
		out[ls.Name()] = string(alphabet.LettersToBytes(ls.Seq))
	}
	return out, nil
}

func isPSLHeader(l string) bool {
	if l == "" {
		return true
	}
	c := l[0]
	return c < '0' || c > '9'
}

// ReadPSL reads PSL records, skipping the psLayout header BLAT may write.
func ReadPSL(r io.Reader) ([]psl.Record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, bufSize), 1<<28)
	var out []psl.Record
	line := 0
	for sc.Scan() {
		line++
		l := strings.TrimRight(sc.Text(), "\r")
		if isPSLHeader(l) {
			continue
		}
		rec, err := psl.Parse(l)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	return out, sc.Err()
}

func WritePSL(w io.Writer, recs []psl.Record) error {
	for _, r := range recs {
		if _, err := io.WriteString(w, r.String()+"\n"); err != nil {
			return err
		}
	}
	return nil
}

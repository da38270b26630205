package ghm

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/spf13/cobra"
)

// Reading is one telemetry frame keyed by field name.
type Reading map[string]float64

// ReadingEntry converts a reading for the memory store and the chart API.
func ReadingEntry(r Reading) Entry {
	e := make(Entry, len(r)+1)
	for k, v := range r {
		e[k] = v
	}
	return e
}

// DataSet is a recorded flight: one value column per field, all columns
// sampled at the recording frequency.
type DataSet map[string][]float64

func LoadDataSet(path string) (DataSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ds := DataSet{}
	if err := json.NewDecoder(f).Decode(&ds); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// Rows is the length of the longest column.
func (ds DataSet) Rows() int {
	n := 0
	for _, col := range ds {
		if len(col) > n {
			n = len(col)
		}
	}
	return n
}

// Row returns the values recorded at index i. Fields whose column is
// shorter are left out.
func (ds DataSet) Row(i int) Reading {
	r := Reading{}
	for k, col := range ds {
		if i < len(col) {
			r[k] = col[i]
		}
	}
	return r
}

// Fields returns the recorded field names in lexical order.
func (ds DataSet) Fields() []string {
	res := make([]string, 0, len(ds))
	for k := range ds {
		res = append(res, k)
	}
	sort.Strings(res)
	return res
}

// ReplayProducer plays a recorded data set back one row per tick.
type ReplayProducer struct {
	path  string
	loop  bool
	debug bool

	ds  DataSet
	pos int
}

func (rp *ReplayProducer) Setup(cmd *cobra.Command, name string) {
	cmd.PersistentFlags().StringVar(&rp.path, "data-set", "data.json", "Recorded flight data set")
	cmd.PersistentFlags().BoolVar(&rp.loop, "replay-loop", false, "Restart the data set when it ends")
}

func (rp *ReplayProducer) Init(d bool) error {
	rp.debug = d
	if rp.ds != nil {
		return nil
	}
	ds, err := LoadDataSet(rp.path)
	if err != nil {
		return err
	}
	rp.ds = ds
	log.Printf("Loaded %d rows of %v from %s", ds.Rows(), ds.Fields(), rp.path)
	return nil
}

func (rp *ReplayProducer) Produce() (Reading, error) {
	if rp.pos >= rp.ds.Rows() {
		if !rp.loop || rp.ds.Rows() == 0 {
			return nil, ErrEndOfData
		}
		rp.pos = 0
	}
	r := rp.ds.Row(rp.pos)
	if rp.debug {
		log.Printf("Replaying row %d", rp.pos)
	}
	rp.pos++
	return r, nil
}

func (rp *ReplayProducer) Close() error { return nil }

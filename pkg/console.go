package ghm

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// ConsoleConsumer logs every reading on one line.
type ConsoleConsumer[R any] struct {
	ToRawConverter func(R) Entry
	fields         []string
}

func (cc *ConsoleConsumer[R]) Setup(cmd *cobra.Command, name string) {
	cmd.PersistentFlags().StringSliceVar(&cc.fields, "console-fields", nil, "Fields printed by the console consumer, all when empty")
}

func (cc *ConsoleConsumer[R]) Init(d bool) error {
	if cc.ToRawConverter == nil {
		cc.ToRawConverter = func(r R) Entry { return Entry{"value": r} }
	}
	return nil
}

func (cc *ConsoleConsumer[R]) Consume(v R) error {
	log.Println(cc.format(cc.ToRawConverter(v)))
	return nil
}

func (cc *ConsoleConsumer[R]) format(e Entry) string {
	keys := cc.fields
	if len(keys) == 0 {
		for k := range e {
			if k != "ts" {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
	}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if v, ok := e[k]; ok {
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		}
	}
	return strings.Join(parts, " ")
}

func (cc *ConsoleConsumer[R]) Close() error { return nil }

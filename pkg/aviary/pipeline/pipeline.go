// Package pipeline drives classification and flattening over decoded
// tweets, including the referenced tweets they embed.
package pipeline

import (
	"github.com/perchlab/aviary/pkg/aviary/flatten"
	"github.com/perchlab/aviary/pkg/aviary/keyword"
	"github.com/perchlab/aviary/pkg/aviary/tweet"
)

// Sink receives flattened output. Implementations append each pair to
// the records and users tables.
type Sink interface {
	Write(rec flatten.Record, user flatten.UserSnapshot) error
}

// Stats counts the outcome of processing one input tweet and the tweets
// embedded in it.
type Stats struct {
	Written int
	Dropped int
}

// Driver applies the configured keyword filter and the flattener to each
// tweet. A nil filter retains everything and flags nothing.
type Driver struct {
	filter *keyword.Filter
}

// New creates a driver for the given filter, which may be nil.
func New(filter *keyword.Filter) *Driver {
	return &Driver{filter: filter}
}

// Process handles one decoded tweet. Embedded retweeted/quoted statuses
// are queued and processed as independent records, each subject to the
// same classification, retweeted before quoted. The explicit worklist
// keeps termination visible: references are strictly nested objects
// drawn from finite input, so the queue drains.
func (d *Driver) Process(t tweet.Raw, sink Sink) (Stats, error) {
	var stats Stats
	queue := []tweet.Raw{t}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		keep, err := d.filter.ShouldRetain(cur)
		if err != nil {
			return stats, err
		}
		if !keep {
			stats.Dropped++
			continue
		}
		rec, refs, err := flatten.Tweet(cur)
		if err != nil {
			return stats, err
		}
		if col := d.filter.FlagColumn(); col != "" {
			matched, err := d.filter.Matches(cur)
			if err != nil {
				return stats, err
			}
			rec[col] = matched
		}
		snap, err := flatten.User(cur)
		if err != nil {
			return stats, err
		}
		if err := sink.Write(rec, snap); err != nil {
			return stats, err
		}
		stats.Written++
		queue = append(queue, refs...)
	}
	return stats, nil
}

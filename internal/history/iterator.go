// Package history implements cursor-based iteration over a channel's
// message history. An Iterator pulls pages from a MessageLister on demand,
// buffers them, and yields messages one at a time or page by page.
package history

import (
	"context"
	"errors"

	"github.com/nkoval/parley/internal/models"
)

// Direction controls which way an Iterator walks the history.
type Direction int

const (
	// DirectionUp walks toward older messages.
	DirectionUp Direction = iota
	// DirectionDown walks toward newer messages. Downward iteration
	// requires an explicit starting cursor: the backing store's default
	// page (no cursor) is the newest page, which cannot seed a forward
	// scan.
	DirectionDown
)

// ErrMissingCursor is returned by NewIterator for a downward iterator
// constructed without a before or after cursor.
var ErrMissingCursor = errors.New("history: downward iteration requires a before or after cursor")

// DefaultChunkSize is the page size requested per fetch when Options does
// not set one.
const DefaultChunkSize = 100

// MessageLister is the collaborator the iterator fetches pages through.
// Implementations return messages newest-first: all messages with IDs
// strictly between the cursors (either may be nil), at most limit of them,
// ordered by descending ID.
type MessageLister interface {
	ListMessages(ctx context.Context, channelID int64, before, after *int64, limit int) ([]models.Message, error)
}

// Options configures an Iterator.
type Options struct {
	Direction Direction
	// Bulk makes Next yield whole pages through Page instead of single
	// messages through Message.
	Bulk      bool
	Before    *int64
	After     *int64
	ChunkSize int
}

// Iterator is a pull-based scanner over one channel's messages. It is not
// safe for concurrent use: cursors and the buffer are mutated on every
// refill, so run one iterator per goroutine per scan. A finished or
// abandoned iterator is simply dropped; restarting means constructing a
// new one with an explicit cursor.
type Iterator struct {
	lister    MessageLister
	channelID int64
	direction Direction
	bulk      bool
	chunkSize int

	before *int64
	after  *int64

	// buffer holds fetched-but-not-yet-yielded messages. For upward
	// iteration it stays in the store's newest-first order; for downward
	// iteration each page is reversed to oldest-first on arrival. Both
	// directions consume from the front, so yielded order is monotonic in
	// the scan direction.
	buffer []models.Message

	msg       models.Message
	page      []models.Message
	err       error
	exhausted bool
}

// NewIterator creates an iterator over the given channel's messages.
func NewIterator(lister MessageLister, channelID int64, opts Options) (*Iterator, error) {
	if opts.Direction == DirectionDown && opts.Before == nil && opts.After == nil {
		return nil, ErrMissingCursor
	}

	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	return &Iterator{
		lister:    lister,
		channelID: channelID,
		direction: opts.Direction,
		bulk:      opts.Bulk,
		chunkSize: chunkSize,
		before:    opts.Before,
		after:     opts.After,
	}, nil
}

// Next advances the iterator, fetching a new page when the buffer is
// drained. It returns false when the history is exhausted or a fetch
// failed; Err distinguishes the two.
func (it *Iterator) Next(ctx context.Context) bool {
	if it.err != nil || it.exhausted {
		return false
	}

	if len(it.buffer) == 0 && !it.fill(ctx) {
		return false
	}

	if it.bulk {
		it.page = it.buffer
		it.buffer = nil
		return true
	}

	it.msg = it.buffer[0]
	it.buffer = it.buffer[1:]
	return true
}

// fill issues one fetch and replenishes the buffer. Fetches are strictly
// sequential: the cursor advanced here is what the next fill uses, so a
// single-goroutine consumer never sees duplicated or skipped IDs.
func (it *Iterator) fill(ctx context.Context) bool {
	page, err := it.lister.ListMessages(ctx, it.channelID, it.before, it.after, it.chunkSize)
	if err != nil {
		it.err = err
		return false
	}

	// An empty page is the normal end of the sequence, not an error.
	if len(page) == 0 {
		it.exhausted = true
		return false
	}

	it.before = nil
	it.after = nil

	switch it.direction {
	case DirectionUp:
		// Page arrives newest-first; the last entry is the oldest
		// fetched, which becomes the boundary for the next step into
		// the past.
		oldest := page[len(page)-1].ID
		it.before = &oldest
	case DirectionDown:
		reverse(page)
		// After reversing, the last entry is the newest fetched; the
		// next fetch continues forward from there.
		newest := page[len(page)-1].ID
		it.after = &newest
	}

	it.buffer = page
	return true
}

// Message returns the message yielded by the latest Next call. Only valid
// for non-bulk iterators.
func (it *Iterator) Message() models.Message { return it.msg }

// Page returns the page yielded by the latest Next call. Only valid for
// bulk iterators.
func (it *Iterator) Page() []models.Message { return it.page }

// Err returns the upstream error that stopped iteration, or nil if the
// iterator is still running or ended by exhausting the history.
func (it *Iterator) Err() error { return it.err }

func reverse(msgs []models.Message) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}

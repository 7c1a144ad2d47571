package http2

import (
	"sort"
)

// Streams is a stream table ordered by ascending id. Lookups and
// insertions are O(log n) via binary search; ids are never reused on
// a connection, so insertion is append-heavy in practice.
type Streams struct {
	list []*Stream
}

// Len returns the number of tracked streams.
func (strms *Streams) Len() int { return len(strms.list) }

func (strms *Streams) Insert(s *Stream) {
	i := sort.Search(len(strms.list), func(i int) bool {
		return strms.list[i].id >= s.id
	})

	if i == len(strms.list) {
		strms.list = append(strms.list, s)
	} else {
		// TODO: overflows?
		strms.list = append(strms.list[:i+1], strms.list[i:]...)
		strms.list[i] = s
	}
}

func (strms *Streams) Del(id uint32) *Stream {
	i := sort.Search(len(strms.list), func(i int) bool {
		return strms.list[i].id >= id
	})

	if i < len(strms.list) && strms.list[i].id == id {
		strm := strms.list[i]
		strms.list = append(strms.list[:i], strms.list[i+1:]...)
		return strm
	}

	return nil
}

func (strms *Streams) Get(id uint32) *Stream {
	i := sort.Search(len(strms.list), func(i int) bool {
		return strms.list[i].id >= id
	})
	if i < len(strms.list) && strms.list[i].id == id {
		return strms.list[i]
	}

	return nil
}

// Each calls fn for every tracked stream in ascending id order. fn
// must not mutate the table.
func (strms *Streams) Each(fn func(*Stream)) {
	for _, s := range strms.list {
		fn(s)
	}
}

// CloseAll transitions every tracked stream to closed, e.g. when the
// connection is torn down and no further frames will be delivered.
func (strms *Streams) CloseAll() {
	for _, s := range strms.list {
		s.SetState(StreamClosed)
	}
}

// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package cache

import (
	"errors"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// ErrNegativeLength reports a corrupted vector length prefix.
var ErrNegativeLength = errors.New("cache: negative vector length")

// EntryMUS serializes cache entries in MUS format. Timestamps are stored
// as Unix microseconds.
var EntryMUS = entryMUS{}

type entryMUS struct{}

// Marshal writes the entry into bs and returns the bytes written.
// bs must be at least Size(e) long.
func (entryMUS) Marshal(e Entry, bs []byte) (n int) {
	n = varint.Int.Marshal(len(e.Vector), bs)
	for _, v := range e.Vector {
		n += varint.Float32.Marshal(v, bs[n:])
	}
	n += ord.String.Marshal(e.Model, bs[n:])
	n += varint.Int64.Marshal(e.CreatedAt.UnixMicro(), bs[n:])
	n += varint.Int64.Marshal(int64(e.TTL), bs[n:])
	return n
}

// Unmarshal reads an entry from bs and returns it with the bytes consumed.
func (entryMUS) Unmarshal(bs []byte) (e Entry, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	if length < 0 {
		err = ErrNegativeLength
		return
	}

	var n1 int
	if length > 0 {
		e.Vector = make([]float32, length)
	}
	for i := 0; i < length; i++ {
		e.Vector[i], n1, err = varint.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}

	e.Model, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}

	var micros int64
	micros, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	e.CreatedAt = time.UnixMicro(micros).UTC()

	var ttl int64
	ttl, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	e.TTL = time.Duration(ttl)
	return
}

// Size returns the serialized length of the entry.
func (entryMUS) Size(e Entry) (size int) {
	size = varint.Int.Size(len(e.Vector))
	for _, v := range e.Vector {
		size += varint.Float32.Size(v)
	}
	size += ord.String.Size(e.Model)
	size += varint.Int64.Size(e.CreatedAt.UnixMicro())
	size += varint.Int64.Size(int64(e.TTL))
	return size
}

// MarshalEntry serializes an Entry to bytes.
func MarshalEntry(e Entry) []byte {
	buf := make([]byte, EntryMUS.Size(e))
	EntryMUS.Marshal(e, buf)
	return buf
}

// UnmarshalEntry deserializes an Entry from bytes.
func UnmarshalEntry(data []byte) (Entry, error) {
	e, _, err := EntryMUS.Unmarshal(data)
	return e, err
}

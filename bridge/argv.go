package bridge

import (
	"sort"

	"github.com/wippyai/js-bridge/errors"
)

// startBlockBase is where the argv/env block begins in guest memory. The
// guest's runtime reserves everything below it for its own use.
const startBlockBase uint32 = 4096

// writeStartBlock lays out the argv and environment strings followed by the
// pointer vector the entry export expects. Strings are NUL-terminated UTF-8
// padded to 8-byte alignment; each vector entry is an 8-byte pointer plus 8
// zero bytes, with the raw environment count inserted between the argv and
// env pointer runs. Returns (argc, address of the pointer vector).
func (s *Session) writeStartBlock() (argc, argv uint32, err error) {
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(*errors.Error)
			if !ok {
				panic(r)
			}
			err = e
		}
	}()

	keys := make([]string, 0, len(s.cfg.Env))
	for k := range s.cfg.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	off := startBlockBase
	writeStr := func(str string) uint32 {
		ptr := off
		b := append([]byte(str), 0)
		for len(b)%8 != 0 {
			b = append(b, 0)
		}
		s.storeBytes(off, b)
		off += uint32(len(b))
		return ptr
	}

	argPtrs := make([]uint32, len(s.cfg.Args))
	for i, a := range s.cfg.Args {
		argPtrs[i] = writeStr(a)
	}
	envPtrs := make([]uint32, len(keys))
	for i, k := range keys {
		envPtrs[i] = writeStr(k + "=" + s.cfg.Env[k])
	}

	argv = off
	for _, p := range argPtrs {
		s.storeU64(off, uint64(p))
		s.storeU64(off+8, 0)
		off += 16
	}
	s.storeU64(off, uint64(len(envPtrs)))
	off += 8
	for _, p := range envPtrs {
		s.storeU64(off, uint64(p))
		s.storeU64(off+8, 0)
		off += 16
	}

	return uint32(len(s.cfg.Args)), argv, nil
}

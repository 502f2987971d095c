// Package jsbridge implements the host side of a linear-memory guest VM's
// scripting bridge: guest code calls a fixed import surface to reach host
// objects, timers, randomness and I/O, while the host resumes the guest's
// cooperative scheduler across event-loop turns.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	jsbridge/        Root package with the Memory and Guest interfaces
//	├── bridge/      Session driver, import surface, callback trampoline
//	├── values/      Handle table and NaN-boxed value codec
//	├── hostobj/     Dynamic host value model (objects, functions, buffers)
//	├── eventloop/   Single-threaded executor and one-shot timers
//	├── engine/      wazero integration (instantiation, host module, memory)
//	└── errors/      Structured error types for debugging
//
// # Quick Start
//
// Run a guest module to completion:
//
//	eng, err := engine.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close(ctx)
//
//	sess := bridge.NewSession(bridge.Config{Args: []string{"app"}})
//	inst, err := eng.Instantiate(ctx, wasmBytes, sess)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer inst.Close(ctx)
//
//	code, err := sess.Run(ctx)
//
// The bridge core depends only on the root Memory and Guest interfaces, so it
// can be driven by any VM engine (or a test fake); the engine package binds it
// to wazero.
package jsbridge

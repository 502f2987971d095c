package engine

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	jsbridge "github.com/wippyai/js-bridge"
	"github.com/wippyai/js-bridge/bridge"
	"github.com/wippyai/js-bridge/errors"
)

// hostModule is the import module name guest binaries link against.
const hostModule = "host"

// Engine owns a wazero runtime and instantiates guest modules bound to
// bridge sessions.
type Engine struct {
	runtime wazero.Runtime
}

// Config holds configuration for engine creation.
type Config struct {
	// MemoryLimitPages sets the maximum memory per instance in pages (64KB
	// each). 0 means the wazero default (65536 pages = 4GB).
	MemoryLimitPages uint32
}

// New creates an engine with default configuration.
func New(ctx context.Context) (*Engine, error) {
	return NewWithConfig(ctx, nil)
}

// NewWithConfig creates an engine with custom configuration.
func NewWithConfig(ctx context.Context, cfg *Config) (*Engine, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg != nil && cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	return &Engine{runtime: wazero.NewRuntimeWithConfig(ctx, runtimeCfg)}, nil
}

// Close releases the runtime and every module instantiated through it.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// Instantiate compiles wasmBytes, registers the session's import surface
// under the "host" module, instantiates the guest and binds it to the
// session. The session is ready to Start when Instantiate returns.
func (e *Engine) Instantiate(ctx context.Context, wasmBytes []byte, sess *bridge.Session) (*Instance, error) {
	builder := e.runtime.NewHostModuleBuilder(hostModule)
	for name, fn := range sess.Imports() {
		fn := fn
		builder = builder.NewFunctionBuilder().
			WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, _ api.Module, stack []uint64) {
				fn(ctx, uint32(stack[0]))
			}), []api.ValueType{api.ValueTypeI32}, nil).
			Export(name)
	}
	if _, err := builder.Instantiate(ctx); err != nil {
		return nil, errors.Instantiation(fmt.Errorf("host module: %w", err))
	}

	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, errors.Load("compile guest module", err)
	}

	mod, err := e.runtime.InstantiateModule(ctx, compiled,
		wazero.NewModuleConfig().
			WithName(sess.ID()).
			WithStartFunctions())
	if err != nil {
		return nil, errors.Instantiation(err)
	}

	inst := &Instance{
		mod:    mod,
		run:    mod.ExportedFunction("run"),
		resume: mod.ExportedFunction("resume"),
		getsp:  mod.ExportedFunction("getsp"),
	}
	for _, exp := range []struct {
		name string
		fn   api.Function
	}{{"run", inst.run}, {"resume", inst.resume}, {"getsp", inst.getsp}} {
		if exp.fn == nil {
			return nil, errors.Instantiation(fmt.Errorf("guest does not export %q", exp.name))
		}
	}

	Logger().Debug("guest instantiated",
		zap.String("session", sess.ID()),
		zap.Uint32("memory_pages", mod.Memory().Size()/65536))

	sess.Bind(inst)
	return inst, nil
}

// Instance is one instantiated guest module, the wazero side of a session.
type Instance struct {
	mod    api.Module
	run    api.Function
	resume api.Function
	getsp  api.Function
}

// Mem returns an accessor over the guest's current linear memory. It must
// be re-obtained after any call that can grow guest memory; the bridge does
// this by never caching the result.
func (i *Instance) Mem() jsbridge.Memory {
	return &Memory{mem: i.mod.Memory()}
}

// Run calls the guest entry export with the argv vector location.
func (i *Instance) Run(ctx context.Context, argc, argv uint32) error {
	_, err := i.run.Call(ctx, uint64(argc), uint64(argv))
	return err
}

// Resume re-enters the guest scheduler after a timer or callback event.
func (i *Instance) Resume(ctx context.Context) error {
	_, err := i.resume.Call(ctx)
	return err
}

// StackPointer reads the guest's current stack pointer, required after any
// host-to-guest reentry since the guest stack may have moved.
func (i *Instance) StackPointer(ctx context.Context) (uint32, error) {
	results, err := i.getsp.Call(ctx)
	if err != nil {
		return 0, err
	}
	return uint32(results[0]), nil
}

// Close releases the guest module.
func (i *Instance) Close(ctx context.Context) error {
	return i.mod.Close(ctx)
}

var _ jsbridge.Guest = (*Instance)(nil)

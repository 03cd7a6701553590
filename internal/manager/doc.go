// Package manager is the model session and generation core. It is structured
// into small files by concern:
//
//   - manager.go: Manager facade wiring registry, loader and engine.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - types.go: Handle, SamplingParams, Result and fixed generation constants.
//   - errors.go: AuthError/LoadError/GenerationError and IsXxx predicates.
//   - cache.go: ModelCache, the per-identifier handle cache.
//   - loader.go: credential handshake, device probe, backend construction.
//   - admission.go: single in-flight generation per handle.
//   - engine.go: Generate, timing and soft-failure conversion.
//   - extract.go: prompt echo stripping.
//   - events.go, eventpub_*.go: notification sink and implementations.
//   - sink.go: hand-off of results to a history collaborator.
//   - metrics.go: Prometheus collectors for loads and generations.
//   - status_report.go: Status snapshot for the HTTP shell.
//
// Backends:
//
//   - openai (adapter_openai.go): any OpenAI-compatible completions server.
//   - llama (adapter_llama.go): in-process go-llama.cpp, enabled with
//     `-tags=llama`. A no-CGO stub (adapter_llama_stub.go) reports the
//     dependency as unavailable when the tag is not set.
//   - echo (adapter_echo.go): deterministic local backend for demos.
//
// Failures never escape Load or Generate as panics; callers receive typed
// errors or soft-failure results.
package manager

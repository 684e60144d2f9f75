// Package sim provides the discrete-event cloud datacenter simulation core:
// the event engine, the Host/VM/Cloudlet entity model, the targeting-aware
// placement policy, the per-VM cloudlet scheduler, the broker (wait queue +
// agent-directed dispatch), the workload reader/splitter, the step/reset
// driver, and the agent bridge (observation/action/reward/info).
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - cloudlet.go: Cloudlet lifecycle (Waiting -> InExec -> Success/Failed/Cancelled)
//   - event.go: Event types that drive the simulation (Arrival, Submit, Finish, ...)
//   - engine.go: The future-event heap, Schedule, RunUntil, listener hooks
//   - broker.go: Wait queue, agent-directed dispatch, VM-destruction rescheduling
//   - driver.go: Reset/Step, the external control surface
//   - bridge.go: Action decoding, observation assembly, reward decomposition
//
// # Key Interfaces
//
// The extension points are small, single-purpose interfaces:
//   - PlacementPolicy: choose a Host for a newly created VM
//   - EventListener: observe processed events of one tag (registered with Engine.On;
//     keep-alive injection uses Engine.OnAfterEvent instead)
package sim

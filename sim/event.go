// sim/event.go
package sim

import "github.com/sirupsen/logrus"

// EventTag distinguishes event kinds for listener dispatch. Entities
// register interest by tag at construction rather than via a reflective
// listener chain (per the design note on the central event listener graph).
type EventTag int

const (
	TagCloudletArrival EventTag = iota
	TagCloudletSubmit
	TagCloudletFinish
	TagVMCreate
	TagVMStarted
	TagVMDestroy
	TagVMDestroyed
	TagNone // keep-alive tick; carries no payload
)

// Event is anything the engine can schedule and dispatch.
type Event interface {
	Timestamp() int64
	Tag() EventTag
	Execute(eng *Engine)
}

type baseEvent struct {
	time int64
	tag  EventTag
}

func (e baseEvent) Timestamp() int64 { return e.time }
func (e baseEvent) Tag() EventTag    { return e.tag }

// CloudletArrivalEvent marks the moment a cloudlet becomes eligible for
// admission into the broker's wait queue. Carries the cloudlet itself
// (single-threaded in-process sim, so a direct pointer is simpler and
// cheaper than a registry keyed by id).
type CloudletArrivalEvent struct {
	baseEvent
	Cloudlet *Cloudlet
}

func NewCloudletArrivalEvent(time int64, c *Cloudlet) *CloudletArrivalEvent {
	return &CloudletArrivalEvent{baseEvent{time, TagCloudletArrival}, c}
}

func (e *CloudletArrivalEvent) Execute(eng *Engine) {
	logrus.Debugf("<< CloudletArrival: cloudlet %d at %d", e.Cloudlet.ID, e.time)
	eng.dispatchTag(e)
}

// CloudletSubmitEvent is sent to the datacenter's target VM scheduler after
// a successful broker dispatch.
type CloudletSubmitEvent struct {
	baseEvent
	Cloudlet *Cloudlet
	VMID     int64
}

func NewCloudletSubmitEvent(time int64, c *Cloudlet, vmID int64) *CloudletSubmitEvent {
	return &CloudletSubmitEvent{baseEvent{time, TagCloudletSubmit}, c, vmID}
}

func (e *CloudletSubmitEvent) Execute(eng *Engine) {
	logrus.Debugf("<< CloudletSubmit: cloudlet %d -> vm %d at %d", e.Cloudlet.ID, e.VMID, e.time)
	eng.dispatchTag(e)
}

// CloudletFinishEvent fires when a cloudlet's scheduler finishes it.
type CloudletFinishEvent struct {
	baseEvent
	Cloudlet *Cloudlet
}

func NewCloudletFinishEvent(time int64, c *Cloudlet) *CloudletFinishEvent {
	return &CloudletFinishEvent{baseEvent{time, TagCloudletFinish}, c}
}

func (e *CloudletFinishEvent) Execute(eng *Engine) {
	logrus.Debugf("<< CloudletFinish: cloudlet %d at %d", e.Cloudlet.ID, e.time)
	eng.dispatchTag(e)
}

// VMCreateEvent requests that a VM begin its startup delay.
type VMCreateEvent struct {
	baseEvent
	VMID int64
}

func NewVMCreateEvent(time int64, vmID int64) *VMCreateEvent {
	return &VMCreateEvent{baseEvent{time, TagVMCreate}, vmID}
}

func (e *VMCreateEvent) Execute(eng *Engine) {
	logrus.Debugf("<< VMCreate: vm %d at %d", e.VMID, e.time)
	eng.dispatchTag(e)
}

// VMStartedEvent fires when a VM transitions Starting -> Running.
type VMStartedEvent struct {
	baseEvent
	VMID int64
}

func NewVMStartedEvent(time int64, vmID int64) *VMStartedEvent {
	return &VMStartedEvent{baseEvent{time, TagVMStarted}, vmID}
}

func (e *VMStartedEvent) Execute(eng *Engine) {
	logrus.Debugf("<< VMStarted: vm %d at %d", e.VMID, e.time)
	eng.dispatchTag(e)
}

// VMDestroyEvent requests that a VM begin its shutdown delay.
type VMDestroyEvent struct {
	baseEvent
	VMID int64
}

func NewVMDestroyEvent(time int64, vmID int64) *VMDestroyEvent {
	return &VMDestroyEvent{baseEvent{time, TagVMDestroy}, vmID}
}

func (e *VMDestroyEvent) Execute(eng *Engine) {
	logrus.Debugf("<< VMDestroy: vm %d at %d", e.VMID, e.time)
	eng.dispatchTag(e)
}

// VMDestroyedEvent fires when a VM transitions ShuttingDown -> Destroyed.
type VMDestroyedEvent struct {
	baseEvent
	VMID int64
}

func NewVMDestroyedEvent(time int64, vmID int64) *VMDestroyedEvent {
	return &VMDestroyedEvent{baseEvent{time, TagVMDestroyed}, vmID}
}

func (e *VMDestroyedEvent) Execute(eng *Engine) {
	logrus.Debugf("<< VMDestroyed: vm %d at %d", e.VMID, e.time)
	eng.dispatchTag(e)
}

// NoneEvent is a keep-alive tick injected during the final stretch of an
// episode (future-event count == 1) so in-flight cloudlets still get a
// chance to finish, per spec §4.1.
type NoneEvent struct {
	baseEvent
}

func NewNoneEvent(time int64) *NoneEvent {
	return &NoneEvent{baseEvent{time, TagNone}}
}

func (e *NoneEvent) Execute(eng *Engine) {
	eng.dispatchTag(e)
}

package session

import (
	"sort"
	"strings"

	"llamabridge/internal/engine"
	"llamabridge/internal/varlen"
)

// DefaultAcceleratorIDs are matched case-insensitively against backend labels.
var DefaultAcceleratorIDs = []string{"webgpu", "wgpu", "cuda", "metal", "vulkan", "hip", "rocm"}

func (r *Runtime) ensureBackend() {
	if r.backendInit {
		return
	}
	r.eng.BackendInit()
	r.backendInit = true
}

func (r *Runtime) refreshBackends() {
	r.eng.LoadAllBackends()
	r.labels = BackendLabels(r.eng.Devices())
	r.accelerated = matchesAny(r.labels, r.accelIDs)
}

// ProbeBackends re-enumerates devices and returns their labels.
func (r *Runtime) ProbeBackends() []string {
	r.ensureBackend()
	r.refreshBackends()
	logger.Debug().Strs("backends", r.labels).Bool("accelerated", r.accelerated).Msg("backends probed")
	return r.Backends()
}

// Backends returns the labels from the last probe or model load.
func (r *Runtime) Backends() []string { return append([]string(nil), r.labels...) }

// Accelerated reports whether the last probe found an accelerator backend.
func (r *Runtime) Accelerated() bool { return r.accelerated }

// BackendLabels formats devices as "registry" when both names agree, as
// "registry (device)" when they differ and as the bare device name otherwise.
func BackendLabels(devs []engine.Device) []string {
	out := make([]string, 0, len(devs))
	for _, d := range devs {
		if d.Name == "" {
			continue
		}
		switch {
		case d.Registry == "":
			out = append(out, d.Name)
		case strings.EqualFold(d.Registry, d.Name):
			out = append(out, d.Registry)
		default:
			out = append(out, d.Registry+" ("+d.Name+")")
		}
	}
	return out
}

func matchesAny(labels, ids []string) bool {
	for _, l := range labels {
		l = strings.ToLower(l)
		for _, id := range ids {
			if id != "" && strings.Contains(l, strings.ToLower(id)) {
				return true
			}
		}
	}
	return false
}

// Metadata returns a copy of the loaded model's key/value metadata.
func (r *Runtime) Metadata() map[string]string {
	out := make(map[string]string, len(r.metadata))
	for k, v := range r.metadata {
		out[k] = v
	}
	return out
}

// MetadataKeys returns metadata keys in sorted order.
func (r *Runtime) MetadataKeys() []string {
	keys := make([]string, 0, len(r.metadata))
	for k := range r.metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (r *Runtime) readMetadata() map[string]string {
	n := r.model.MetaCount()
	meta := make(map[string]string, max(n, 0))
	for i := int32(0); i < n; i++ {
		key, ok := varlen.String(varlen.MetaKey, func(buf []byte) int32 {
			return r.model.MetaKeyByIndex(i, buf)
		})
		if !ok || key == "" {
			continue
		}
		// unreadable values degrade to empty text
		val, _ := varlen.String(varlen.MetaValue, func(buf []byte) int32 {
			return r.model.MetaValueByIndex(i, buf)
		})
		meta[key] = val
	}
	return meta
}

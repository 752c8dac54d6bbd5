package kube

// Centralized label keys used by the kube adapter.
// Keep these constants stable; changes are API-visible in clusters.
const (
	LabelAppK8sName      = "app.kubernetes.io/name"
	LabelAppK8sManagedBy = "app.kubernetes.io/managed-by"
	LabelAppK8sComponent = "app.kubernetes.io/component"

	// ManagedByValue marks every object this tool creates directly.
	ManagedByValue = "localdev"

	// FieldManager is used for creates, updates, and server-side apply.
	FieldManager = "localdev"
)

func managedLabels(extra map[string]string) map[string]string {
	m := map[string]string{LabelAppK8sManagedBy: ManagedByValue}
	for k, v := range extra {
		m[k] = v
	}
	return m
}

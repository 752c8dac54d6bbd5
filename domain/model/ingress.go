package model

// LoopbackAddress is the address every managed hostname resolves to.
const LoopbackAddress = "127.0.0.1"

// IngressRule maps an external hostname to a backend service with TLS termination.
type IngressRule struct {
	Host        string
	Namespace   string
	ServiceName string
	ServicePort int32
	TLSSecret   string
	Path        string // Defaults to "/"
}

// Name returns the Ingress object name derived from the hostname's first label.
func (r IngressRule) Name() string {
	for i := 0; i < len(r.Host); i++ {
		if r.Host[i] == '.' {
			return r.Host[:i]
		}
	}
	return r.Host
}

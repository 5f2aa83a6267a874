package lookup

// ResolveFlow names the service of a flow. The lower of the two ports is
// taken as the service port, since clients usually connect from an
// ephemeral high port. Unmatched flows resolve to Unrecognized.
func (t *Table) ResolveFlow(proto string, srcPort, dstPort int) string {
	port := srcPort
	if dstPort < srcPort {
		port = dstPort
	}
	if !validPort(port) {
		return Unrecognized
	}
	if svc, ok := t.Lookup(uint16(port), ParseProtocol(proto)); ok {
		return svc
	}
	return Unrecognized
}

package slicer

// SliceString parses a textual bit code ("{bitlen}hex/...", optional 0x
// prefix) straight into the bit buffer and dispatches it, bypassing pulse
// timing entirely. Test and replay paths only.
func (p *Protocol) SliceString(code string) int {
	p.bits.Clear()
	p.bits.Parse(code)
	return p.accountEvent(p.sink, "string")
}

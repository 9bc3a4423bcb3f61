//go:build !(linux || darwin)

package arena

// MmapProvider is unavailable on this platform.
type MmapProvider struct{ SliceProvider }

// NewMmapProvider always fails on this platform.
func NewMmapProvider(int) (*MmapProvider, error) {
	return nil, ErrUnsupported
}

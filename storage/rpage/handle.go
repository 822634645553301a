package rpage

import "github.com/ryogrid-labs/storagecore/storage/page"

// Handle is a view over one data page's frame, interpreting its bytes
// as PageHdr + bitmap + slots per fileHdr's layout. A thin accessor
// that never copies the frame's underlying array.
type Handle struct {
	Frame *page.Frame
	Hdr   FileHdr
}

// NewHandle wraps fr using hdr's layout.
func NewHandle(fr *page.Frame, hdr FileHdr) Handle {
	return Handle{Frame: fr, Hdr: hdr}
}

// PageHdr reads the page's header.
func (h Handle) PageHdr() PageHdr {
	data := h.Frame.Data()
	return DecodePageHdr(data[:pageHdrSize])
}

// SetPageHdr writes the page's header.
func (h Handle) SetPageHdr(ph PageHdr) {
	data := h.Frame.Data()
	EncodePageHdr(ph, data[:pageHdrSize])
}

// Bitmap returns the page's live-slot bitmap as a slice over the
// frame's backing array; mutations through it are visible immediately.
func (h Handle) Bitmap() Bitmap {
	data := h.Frame.Data()
	start := BitmapOffset
	end := start + int(h.Hdr.BitmapSize)
	return Bitmap(data[start:end])
}

// Slot returns the raw bytes of slot n.
func (h Handle) Slot(n int) []byte {
	data := h.Frame.Data()
	start := SlotsOffset(int(h.Hdr.BitmapSize)) + n*int(h.Hdr.RecordSize)
	end := start + int(h.Hdr.RecordSize)
	return data[start:end]
}

package gifcodec

import "fmt"

// ExtensionBlock is one data sub-block of an extension record. The first
// block of a record carries the record's function code; the blocks that
// follow it carry ContinueExtFuncCode.
type ExtensionBlock struct {
	Function byte
	Data     []byte
}

// Extension reads an extension record. The reader must be positioned just
// after the extension introducer. A record with no data sub-blocks yields
// no blocks.
func (d *Decoder) Extension() ([]ExtensionBlock, error) {
	label, err := d.r.ReadByte()
	if err != nil {
		return nil, truncated(err)
	}
	var (
		blocks []ExtensionBlock
		buf    [255]byte
		fn     = label
	)
	for {
		data, err := readSubBlock(d.r, &buf)
		if err != nil {
			return nil, err
		}
		if data == nil {
			return blocks, nil
		}
		blocks = append(blocks, ExtensionBlock{
			Function: fn,
			Data:     append([]byte(nil), data...),
		})
		fn = ContinueExtFuncCode
	}
}

// Disposal methods stored in a graphic control block.
const (
	DisposalUnspecified = 0
	DisposeDoNot        = 1
	DisposeBackground   = 2
	DisposePrevious     = 3
)

// NoTransparentColor marks the absence of a transparent index.
const NoTransparentColor = -1

// GraphicsControlBlock is the decoded payload of a graphic control
// extension.
type GraphicsControlBlock struct {
	Disposal         int
	UserInput        bool
	DelayTime        int // hundredths of a second
	TransparentColor int // NoTransparentColor when unset
}

// ParseGCB decodes the four-byte payload of a graphic control extension.
func ParseGCB(data []byte) (GraphicsControlBlock, error) {
	if len(data) != 4 {
		return GraphicsControlBlock{}, fmt.Errorf("%w: graphic control block of %d bytes", ErrBadExtension, len(data))
	}
	gcb := GraphicsControlBlock{
		Disposal:         int(data[0]>>2) & 7,
		UserInput:        data[0]&0x02 != 0,
		DelayTime:        int(data[1]) | int(data[2])<<8,
		TransparentColor: NoTransparentColor,
	}
	if data[0]&0x01 != 0 {
		gcb.TransparentColor = int(data[3])
	}
	return gcb, nil
}

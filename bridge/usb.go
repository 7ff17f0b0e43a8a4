package bridge

import (
	"fmt"
	"io"

	"github.com/google/gousb"
)

// usbConn adapts a pair of bulk endpoints to io.ReadWriteCloser.
type usbConn struct {
	ctx  *gousb.Context
	dev  *gousb.Device
	done func()
	out  *gousb.OutEndpoint
	in   *gousb.InEndpoint
}

func (c *usbConn) Write(p []byte) (int, error) { return c.out.Write(p) }
func (c *usbConn) Read(p []byte) (int, error)  { return c.in.Read(p) }

func (c *usbConn) Close() error {
	c.done()
	err := c.dev.Close()
	if cerr := c.ctx.Close(); err == nil {
		err = cerr
	}
	return err
}

// NewUSB opens the bus master gateway on its USB bulk interface.  epOut and
// epIn are the endpoint numbers of the gateway's bulk pipes.
func NewUSB(vid, pid uint16, epOut, epIn int) (*Bridge, error) {
	ctx := gousb.NewContext()
	dev, err := ctx.OpenDeviceWithVIDPID(gousb.ID(vid), gousb.ID(pid))
	if err != nil {
		ctx.Close()
		return nil, err
	}
	if dev == nil {
		ctx.Close()
		return nil, fmt.Errorf("bridge: no USB device %04x:%04x", vid, pid)
	}
	if err := dev.SetAutoDetach(true); err != nil {
		dev.Close()
		ctx.Close()
		return nil, err
	}
	intf, done, err := dev.DefaultInterface()
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, err
	}
	out, err := intf.OutEndpoint(epOut)
	if err == nil {
		var in *gousb.InEndpoint
		in, err = intf.InEndpoint(epIn)
		if err == nil {
			var conn io.ReadWriteCloser = &usbConn{ctx: ctx, dev: dev, done: done, out: out, in: in}
			return New(conn), nil
		}
	}
	done()
	dev.Close()
	ctx.Close()
	return nil, err
}

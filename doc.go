// Package gifanim decodes animated GIF images one frame at a time.
//
// Opening a file reads it once from start to end, recording where every
// frame begins together with its geometry, timing and disposal method.
// No pixel data is kept: each frame is decoded again from its recorded
// offset when it is rendered, so memory use does not grow with the number
// of frames.
//
// All frames of an Image share one decoder and one scratch buffer. Renders
// from different goroutines are serialized; metadata queries never block
// on a render. The Image and every Frame obtained from it must be closed;
// the underlying source is released when the last of them is.
//
// Basic usage:
//
//	img, err := gifanim.OpenBytes(data, nil)
//	if err != nil {
//		return err
//	}
//	defer img.Close()
//	for i := 0; i < img.FrameCount(); i++ {
//		f, err := img.Frame(i)
//		if err != nil {
//			return err
//		}
//		dst := image.NewRGBA(image.Rect(0, 0, f.Width(), f.Height()))
//		err = f.Render(dst)
//		f.Close()
//		if err != nil {
//			return err
//		}
//	}
package gifanim

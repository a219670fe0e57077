package captcha

import "image/color"

var (
	Background = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	BorderGray = color.RGBA{R: 0xd3, G: 0xd3, B: 0xd3, A: 0xff}
)

var glyphColors = []color.RGBA{
	{R: 0x00, G: 0x00, B: 0x00, A: 0xff}, // black
	{R: 0xff, G: 0x00, B: 0x00, A: 0xff}, // red
	{R: 0x00, G: 0x00, B: 0xff, A: 0xff}, // blue
	{R: 0x00, G: 0xbf, B: 0xff, A: 0xff}, // deep sky blue
}

var lineColors = []color.RGBA{
	{R: 0xc0, G: 0xc0, B: 0xc0, A: 0xff}, // silver
	{R: 0xff, G: 0xc0, B: 0xcb, A: 0xff}, // pink
	{R: 0x00, G: 0x00, B: 0xff, A: 0xff}, // blue
	{R: 0x00, G: 0xbf, B: 0xff, A: 0xff}, // deep sky blue
	{R: 0x00, G: 0xff, B: 0xff, A: 0xff}, // aqua
	{R: 0xff, G: 0xf8, B: 0xdc, A: 0xff}, // cornsilk
}

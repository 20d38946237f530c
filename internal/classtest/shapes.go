package classtest

// Shapes returns class files for a small hierarchy:
//
//	interface Shape { double area(); }
//	class Rectangle { int width, height; double area() {...} }
//	class Square extends Rectangle implements Shape
//
// java/lang/Object is referenced but not included.
func Shapes() map[string][]byte {
	shape := New("Shape").
		Flags(0x0601).
		SourceFile("Shape.java").
		Method(0x0401, "area", "()D")

	rect := New("Rectangle").SourceFile("Rectangle.java")
	objectInit := u2(rect.Methodref("java/lang/Object", "<init>", "()V"))
	rect.Field(0x0004, "width", "I").
		Field(0x0004, "height", "I").
		Method(0x0001, "<init>", "(II)V", rect.Code(1, 3,
			concat([]byte{0x2A, 0xB7}, objectInit, []byte{0xB1}),
			nil,
			LineNumbers([2]uint16{0, 3}, [2]uint16{4, 6}),
		)).
		Method(0x0001, "area", "()D", rect.Code(4, 1,
			[]byte{0x0E, 0xAF}, // dconst_0, dreturn
			nil,
		))

	square := New("Square").
		Super("Rectangle").
		Implements("Shape").
		SourceFile("Square.java")
	rectInit := u2(square.Methodref("Rectangle", "<init>", "(II)V"))
	square.Method(0x0001, "<init>", "(I)V", square.Code(3, 2,
		concat([]byte{0x2A, 0x1B, 0x1B, 0xB7}, rectInit, []byte{0xB1}),
		nil,
		LineNumbers([2]uint16{0, 2}, [2]uint16{6, 3}),
	))

	return map[string][]byte{
		"Shape":     shape.Bytes(),
		"Rectangle": rect.Bytes(),
		"Square":    square.Bytes(),
	}
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

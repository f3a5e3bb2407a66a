package kernel

// printer is the kernel's only log sink: a tiny printf over the console.
// It understands %d, %x, %s, %c and %%.
type printer struct {
	out Console
}

func (pr *printer) printInt(num int64) {
	if num < 0 {
		pr.out.Putc('-')
		pr.printUint(uint64(-num), 10)
		return
	}
	pr.printUint(uint64(num), 10)
}

func (pr *printer) printUint(num uint64, base uint64) {
	// 64 bits need at most 20 decimal digits
	var buf [20]byte
	i := 0

	if num == 0 {
		pr.out.Putc('0')
		return
	}
	for num > 0 {
		buf[i] = "0123456789abcdef"[num%base]
		i++
		num = num / base
	}
	for i = i - 1; i >= 0; i-- {
		pr.out.Putc(buf[i])
	}
}

func (pr *printer) printString(str string) {
	for i := 0; i < len(str); i++ {
		pr.out.Putc(str[i])
	}
}

func (pr *printer) printNum(arg interface{}, base uint64) {
	switch v := arg.(type) {
	case int:
		if base == 10 {
			pr.printInt(int64(v))
		} else {
			pr.printUint(uint64(v), base)
		}
	case int64:
		if base == 10 {
			pr.printInt(v)
		} else {
			pr.printUint(uint64(v), base)
		}
	case uint64:
		pr.printUint(v, base)
	case uintptr:
		pr.printUint(uint64(v), base)
	case uint32:
		pr.printUint(uint64(v), base)
	case Pid:
		pr.printUint(uint64(v), base)
	default:
		pr.out.Putc('?')
	}
}

func (pr *printer) printf(format string, args ...interface{}) {
	argIdx := 0
	next := func() interface{} {
		if argIdx >= len(args) {
			return nil
		}
		a := args[argIdx]
		argIdx++
		return a
	}

	for i := 0; i < len(format); i++ {
		if format[i] != '%' || i+1 >= len(format) {
			pr.out.Putc(format[i])
			continue
		}
		i++
		switch format[i] {
		case 'd':
			pr.printNum(next(), 10)
		case 'x':
			pr.printNum(next(), 16)
		case 's':
			if s, ok := next().(string); ok {
				pr.printString(s)
			} else {
				pr.out.Putc('?')
			}
		case 'c':
			switch v := next().(type) {
			case byte:
				pr.out.Putc(v)
			case int:
				pr.out.Putc(byte(v))
			case int32:
				pr.out.Putc(byte(v))
			default:
				pr.out.Putc('?')
			}
		case '%':
			pr.out.Putc('%')
		default:
			pr.out.Putc('%')
			pr.out.Putc(format[i])
		}
	}
}

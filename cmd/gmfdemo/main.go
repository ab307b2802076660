// Command gmfdemo wires a minimal host pipeline, a file source feeding a
// passthrough element feeding a file sink, to exercise the runtime end to
// end: pool registration, element build/cast, port binding, job loading,
// the scheduler loop, and lifecycle events.
package main

import (
	"os"

	"gmf-go/element"
	"gmf-go/elements/passthrough"
	"gmf-go/errcode"
	"gmf-go/event"
	"gmf-go/io/iofile"
	"gmf-go/oal"
	"gmf-go/pipeline"
	"gmf-go/port"
	"gmf-go/registry"
)

type passthroughFactory struct {
	chunkSize int
}

func (f passthroughFactory) New(config any) (*element.Element, errcode.Code) {
	el := element.New(
		element.Descriptor{Tag: "passthrough"},
		element.Cap{Single: true, Types: port.TypeByte},
		element.Cap{Single: true, Types: port.TypeByte},
	)
	return el, errcode.OK
}

func (f passthroughFactory) Cast(el *element.Element) errcode.Code {
	el.Cast(passthrough.New(f.chunkSize))
	return errcode.OK
}

func buildPool() *registry.Pool {
	pool := registry.New()
	pool.RegisterIO("io_file_in", iofile.ReaderFactory{})
	pool.RegisterIO("io_file_out", iofile.WriterFactory{})
	pool.RegisterElement("passthrough", passthroughFactory{chunkSize: 4096}, registry.Cap8("pssthrgh"))
	return pool
}

func main() {
	log := oal.DefaultLogger{}

	if len(os.Args) < 3 {
		log.Println("usage: gmfdemo <input-file> <output-file>")
		os.Exit(2)
	}
	inPath, outPath := os.Args[1], os.Args[2]

	pool := buildPool()
	pipe, code := pipeline.New(pool, "demo", "io_file_in", []string{"passthrough"}, "io_file_out")
	if code != errcode.OK {
		log.Printf("pipeline.New failed: %s\n", code)
		os.Exit(1)
	}

	inAcq, code := pool.BuildIO("io_file_in", inPath)
	if code != errcode.OK {
		log.Printf("open input failed: %s\n", code)
		os.Exit(1)
	}
	outAcq, code := pool.BuildIO("io_file_out", outPath)
	if code != errcode.OK {
		log.Printf("open output failed: %s\n", code)
		os.Exit(1)
	}

	ptElement, _ := pipe.GetElByName("passthrough")
	inPort := port.New(port.DirIn, port.TypeByte, inAcq)
	outPort := port.New(port.DirOut, port.TypeByte, outAcq)
	ptElement.RegisterInPort(inPort)
	ptElement.RegisterOutPort(outPort)

	terminal := make(chan event.State, 1)
	pipe.SetEvent(func(pkt event.Packet) {
		log.Printf("event: from=%s type=%v payload=%v\n", pkt.From, pkt.Type, pkt.Payload)
		if pkt.Type != event.ChangeState {
			return
		}
		if s, ok := pkt.Payload.(event.State); ok && (s == event.StateFinished || s == event.StateError) {
			select {
			case terminal <- s:
			default:
			}
		}
	})

	pipe.LoadingJobs()
	pipe.Run(oal.NewHostThread(), oal.ThreadConfig{Name: "demo-pipeline"})

	final := <-terminal

	if err := pipe.Destroy(); err != nil {
		log.Printf("destroy: %v\n", err)
	}
	log.Printf("done: %s\n", final)
	if final == event.StateError {
		os.Exit(1)
	}
}

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/flywave/go-skn"
)

func main() {
	srcPath := flag.String("src", "", "source .skn file with authored weights")
	meshPath := flag.String("mesh", "", "target mesh (.obj, .gltf or .glb)")
	outPath := flag.String("out", "", "output .skn path")
	k := flag.Int("k", 1, "neighbor count (only 1 is supported)")
	glbPath := flag.String("glb", "", "optional GLB preview of the result")
	blender := flag.Bool("blender", true, "undo Blender's axis convention on OBJ input")
	flag.Parse()

	if *srcPath == "" || *meshPath == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: reskin -src old.skn -mesh new.obj -out new.skn [-k 1] [-glb preview.glb]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	// Reject unsupported modes before touching any file.
	if *k != 1 {
		log.Fatal("only 1-nearest transfer is implemented", "k", *k, "err", skn.ErrNotSupported)
	}

	src, err := skn.SkinReadFrom(*srcPath)
	if err != nil {
		log.Fatal("reading source skin", "path", *srcPath, "err", err)
	}
	log.Info("source skin loaded", "vertices", src.VertexCount(), "bones", src.BoneCount())

	target, err := skn.LoadMeshData(*meshPath)
	if err != nil {
		log.Fatal("loading target mesh", "path", *meshPath, "err", err)
	}
	if *blender && strings.EqualFold(filepath.Ext(*meshPath), ".obj") {
		target.Vertices = skn.NormalizeBlenderAxes(target.Vertices)
	}
	log.Info("target mesh loaded", "vertices", len(target.Vertices), "faces", len(target.Faces))

	out, err := skn.Reskin(src, target, *k)
	if err != nil {
		log.Fatal("transfer failed", "err", err)
	}

	if err := skn.SkinWriteTo(*outPath, out); err != nil {
		log.Fatal("writing output skin", "path", *outPath, "err", err)
	}
	log.Info("skin written", "path", *outPath, "vertices", out.VertexCount(), "bones", out.BoneCount())

	if *glbPath != "" {
		doc, err := skn.SknToGltf(out)
		if err != nil {
			log.Fatal("building preview", "err", err)
		}
		bt, err := skn.GetGltfBinary(doc, 8)
		if err != nil {
			log.Fatal("encoding preview", "err", err)
		}
		if err := os.WriteFile(*glbPath, bt, 0o644); err != nil {
			log.Fatal("writing preview", "path", *glbPath, "err", err)
		}
		log.Info("preview written", "path", *glbPath)
	}
}

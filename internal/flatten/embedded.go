// SPDX-License-Identifier: MPL-2.0

package flatten

import (
	"path"
	"strings"

	"github.com/scenec/scenec/internal/loader"
	"github.com/scenec/scenec/pkg/compileerr"
	"github.com/scenec/scenec/pkg/hashid"
	"github.com/scenec/scenec/pkg/scenefile"
)

type (
	// Artifact is a build input synthesized from an inline payload.
	Artifact struct {
		// Path is the generated project path.
		Path string
		// Type is the extension of Path without the dot.
		Type string
		Data []byte
		// Document is the parsed payload when the registry knows Type.
		Document *loader.Document
		// Origin is the document that declared the payload and OriginID its
		// local id there.
		Origin   string
		OriginID string
	}

	// artifactQueue keeps artifacts in extraction order and deduplicates them
	// by origin.
	artifactQueue struct {
		list     []Artifact
		byOrigin map[string]int
		byPath   map[string]string
	}
)

func newArtifactQueue() artifactQueue {
	return artifactQueue{
		byOrigin: make(map[string]int),
		byPath:   make(map[string]string),
	}
}

// GeneratedPath returns the artifact path for the payload id declared in the
// document at docPath: "<dir>/<stem>_generated_<hash>.<ext>", where hash is
// derived from docPath and id.
func GeneratedPath(docPath, id, ext string) string {
	dir, file := path.Split(docPath)
	stem := strings.TrimSuffix(file, path.Ext(file))
	return path.Join(dir, stem+"_generated_"+hashid.Hex(hashid.Join(docPath, id))+"."+ext)
}

// push enqueues a, unless its origin was already extracted. It returns the
// queued artifact for that origin. A document revisited through another
// collection instance re-pushes the same origins; payloads sharing an id
// within one document are rejected earlier by collection.
func (q *artifactQueue) push(a Artifact) (Artifact, bool, error) {
	key := a.Origin + "#" + a.OriginID
	if i, ok := q.byOrigin[key]; ok {
		return q.list[i], false, nil
	}
	if other, ok := q.byPath[a.Path]; ok {
		return Artifact{}, false, compileerr.PathCollision(a.Origin, a.Path, other, key)
	}
	q.byOrigin[key] = len(q.list)
	q.byPath[a.Path] = key
	q.list = append(q.list, a)
	return a, true, nil
}

// extractInstance turns an embedded instance into a game object artifact and
// extracts its embedded components after it.
func (r *run) extractInstance(docPath string, inst *scenefile.EmbeddedInstance) (Artifact, error) {
	p := GeneratedPath(docPath, inst.ID, "go")
	data := []byte(inst.Data)
	doc, err := r.loader.Parse(p, data)
	if err != nil {
		return Artifact{}, compileerr.Reference(docPath, inst.Line, p, err)
	}
	if doc.Kind != loader.KindGameObject {
		return Artifact{}, compileerr.Reference(docPath, inst.Line, p, ErrWrongKind)
	}

	a, added, err := r.artifacts.push(Artifact{
		Path:     p,
		Type:     "go",
		Data:     data,
		Document: doc,
		Origin:   docPath,
		OriginID: inst.ID,
	})
	if err != nil || !added {
		return a, err
	}

	for _, ec := range doc.GameObject.EmbeddedComponents {
		if err := r.extractComponent(p, ec); err != nil {
			return Artifact{}, err
		}
	}
	r.logger.Debug("embedded instance extracted", "origin", docPath, "id", inst.ID, "path", p, "components", len(doc.GameObject.EmbeddedComponents))
	return a, nil
}

// extractComponent queues an embedded component payload of the game object
// at goPath.
func (r *run) extractComponent(goPath string, ec scenefile.EmbeddedComponent) error {
	p := GeneratedPath(goPath, ec.ID, ec.Type)
	data := []byte(ec.Data)
	a := Artifact{
		Path:     p,
		Type:     ec.Type,
		Data:     data,
		Origin:   goPath,
		OriginID: ec.ID,
	}
	if _, ok := r.loader.Registry().Lookup(p); ok {
		doc, err := r.loader.Parse(p, data)
		if err != nil {
			return compileerr.Reference(goPath, ec.Line, p, err)
		}
		a.Document = doc
	}
	_, _, err := r.artifacts.push(a)
	return err
}

package pdfobj

import "fmt"

// PageInfo is the subset of a PDF page dictionary the rasterizer needs:
// its media box dimensions and the image XObjects referenced by its
// resources.
type PageInfo struct {
	MediaBox [4]float64
	Images   []*Stream
}

// Pages walks the document's page tree (following /Kids, inheriting
// /MediaBox and /Resources down the tree as PDF requires) and returns one
// PageInfo per leaf page, in document order.
func (r *Reader) Pages() ([]PageInfo, error) {
	root, err := r.Root()
	if err != nil {
		return nil, err
	}
	catalog, ok := root.(Dict)
	if !ok {
		return nil, fmt.Errorf("pdfobj: malformed catalog")
	}
	pagesRoot, err := r.GetDict(catalog["Pages"])
	if err != nil {
		return nil, fmt.Errorf("pdfobj: missing page tree: %w", err)
	}

	var out []PageInfo
	const maxDepth = 64
	var walk func(node Dict, inheritedBox [4]float64, inheritedRes Dict, depth int) error
	walk = func(node Dict, inheritedBox [4]float64, inheritedRes Dict, depth int) error {
		if depth > maxDepth {
			return fmt.Errorf("pdfobj: page tree too deep (cycle?)")
		}

		box := inheritedBox
		if mb, ok := node["MediaBox"]; ok {
			arr, err := r.GetArray(mb)
			if err == nil && len(arr) == 4 {
				for i, v := range arr {
					if n, ok := AsNumber(v); ok {
						box[i] = n
					}
				}
			}
		}
		res := inheritedRes
		if rs, ok := node["Resources"]; ok {
			if d, err := r.GetDict(rs); err == nil {
				res = d
			}
		}

		kids, hasKids := node["Kids"]
		if !hasKids {
			images, err := r.imagesForResources(res)
			if err != nil {
				return err
			}
			out = append(out, PageInfo{MediaBox: box, Images: images})
			return nil
		}
		arr, err := r.GetArray(kids)
		if err != nil {
			return err
		}
		for _, kid := range arr {
			kidDict, err := r.GetDict(kid)
			if err != nil {
				return err
			}
			if err := walk(kidDict, box, res, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(pagesRoot, [4]float64{0, 0, 612, 792}, Dict{}, 0); err != nil {
		return nil, err
	}
	return out, nil
}

// imagesForResources collects the /Subtype /Image XObjects directly
// referenced by a resource dictionary, in dictionary iteration order. A
// scanned page normally has exactly one.
func (r *Reader) imagesForResources(res Dict) ([]*Stream, error) {
	if res == nil {
		return nil, nil
	}
	xobjDict, ok := res["XObject"]
	if !ok {
		return nil, nil
	}
	d, err := r.GetDict(xobjDict)
	if err != nil {
		return nil, nil
	}
	var images []*Stream
	for _, v := range d {
		st, err := r.GetStream(v)
		if err != nil {
			continue
		}
		if sub, ok := st.Dict["Subtype"].(Name); ok && sub == "Image" {
			images = append(images, st)
		}
	}
	return images, nil
}

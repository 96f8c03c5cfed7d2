package domain

// allFields populates every field of a media or relation attribute.
func allFields() map[string]any {
	return map[string]any{"fields": []any{"*"}}
}

// PopulateFor builds the nested population spec for a collection:
// components populate recursively, dynamic zones populate per component under "on",
// media and relations populate all their fields, scalars need nothing.
// The result is passed to the content repository unmodified.
func PopulateFor(schema *CollectionSchema) map[string]any {
	populate := map[string]any{}
	if schema == nil {
		return populate
	}
	for name, attr := range schema.Attributes {
		switch attr.Type {
		case AttributeDynamicZone:
			on := map[string]any{}
			for _, uid := range attr.Components {
				on[uid] = componentPopulate(schema, uid, 0)
			}
			populate[name] = map[string]any{"on": on}
		case AttributeComponent:
			populate[name] = componentPopulate(schema, attr.Component, 0)
		case AttributeMedia, AttributeRelation:
			populate[name] = allFields()
		}
	}
	return populate
}

// maxComponentDepth bounds recursion through self-referencing components.
const maxComponentDepth = 20

func componentPopulate(schema *CollectionSchema, uid string, depth int) map[string]any {
	nested := map[string]any{}
	if depth < maxComponentDepth {
		for name, attr := range schema.Components[uid] {
			switch attr.Type {
			case AttributeComponent:
				nested[name] = componentPopulate(schema, attr.Component, depth+1)
			case AttributeMedia:
				nested[name] = allFields()
			}
		}
	}
	return map[string]any{"populate": nested}
}

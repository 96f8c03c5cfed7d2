// Package strapi reads collections from a Strapi v5 REST API.
//
// Schemas come from the content-type builder endpoints, records from the
// collection's REST route. Population specs are encoded in Strapi's bracketed
// query syntax, e.g. populate[seo][populate][image][fields][0]=*.
package strapi

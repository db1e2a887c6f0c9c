package queryplan

import (
	"github.com/roach88/fedplan/internal/ir"
	"github.com/roach88/fedplan/internal/ndc"
	"github.com/roach88/fedplan/internal/queryir"
)

var (
	postgres = &queryir.DataConnector{
		Name:         "postgres",
		URL:          "http://postgres:8080",
		Capabilities: queryir.Capabilities{SupportedNDCVersion: ndc.V02},
	}
	mongo = &queryir.DataConnector{
		Name:         "mongo",
		URL:          "http://mongo:8080",
		Capabilities: queryir.Capabilities{SupportedNDCVersion: ndc.V01},
	}
)

var (
	authorArticles = queryir.LocalRelationshipInfo{
		Name:             "author_articles",
		RelationshipType: ndc.ArrayRelationship,
		TargetCollection: "articles",
		Mappings:         []queryir.ColumnMapping{{Source: "id", Target: "author_id"}},
	}
	articleAuthor = queryir.LocalRelationshipInfo{
		Name:             "article_author",
		RelationshipType: ndc.ObjectRelationship,
		TargetCollection: "authors",
		Mappings:         []queryir.ColumnMapping{{Source: "author_id", Target: "id"}},
	}
	authorCountry = queryir.LocalRelationshipInfo{
		Name:             "author_country",
		RelationshipType: ndc.ObjectRelationship,
		TargetCollection: "countries",
		Mappings:         []queryir.ColumnMapping{{Source: "country_id", Target: "id"}},
	}
)

func columns(names ...string) *queryir.ResultSelectionSet {
	sel := &queryir.ResultSelectionSet{}
	for _, n := range names {
		sel.Fields = append(sel.Fields, queryir.SelectedField{Alias: n, Field: queryir.Column{Column: n}})
	}
	return sel
}

func eq(column string, value ir.IRValue) queryir.BinaryComparison {
	return queryir.BinaryComparison{
		Column:   queryir.ComparisonColumn{Name: column},
		Operator: "_eq",
		Value:    queryir.LiteralValue{Value: value},
	}
}

// reviewsFor builds a remote selection of reviews joined on author id.
func reviewsFor(nested *queryir.ResultSelectionSet) queryir.RemoteRelationship {
	sel := columns("rating")
	if nested != nil {
		sel.Fields = append(sel.Fields, nested.Fields...)
	}
	return queryir.RemoteRelationship{
		RelationshipType: ndc.ArrayRelationship,
		JoinMapping:      []queryir.JoinMapping{{SourceColumn: "id", TargetField: "author_id"}},
		Query: &queryir.ModelSelection{
			Collection: "reviews",
			Connector:  mongo,
			Selection:  sel,
			Filter: queryir.FilterClause{WhereClause: queryir.BinaryComparison{
				Column:   queryir.ComparisonColumn{Name: "author_id"},
				Operator: "_eq",
				Value:    queryir.VariableValue{Name: "author_id"},
			}},
		},
	}
}

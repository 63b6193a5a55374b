package shopify

const shopQuery = `query shop {
  shop { name currencyCode plan { displayName } }
}`

const locationsQuery = `query locations {
  locations(first: 1, query: "status:active") { nodes { id name } }
}`

const productsQuery = `query products($first: Int!, $after: String) {
  products(first: $first, after: $after) {
    pageInfo { hasNextPage endCursor }
    nodes {
      id
      legacyResourceId
      title
      variants(first: 250) { nodes { sku } }
    }
  }
}`

const productQuery = `query product($id: ID!) {
  product(id: $id) {
    id
    legacyResourceId
    title
    descriptionHtml
    productType
    variants(first: 250) { nodes { id sku inventoryItem { id } } }
    media(first: 250) { nodes { id alt ... on MediaImage { image { url } } } }
    mediaSources: metafield(namespace: "catalog_sync", key: "media_sources") { value }
  }
}`

const variantsQuery = `query productVariants($id: ID!) {
  product(id: $id) {
    variants(first: 250) { nodes { id sku inventoryItem { id } } }
  }
}`

const mediaQuery = `query productMedia($id: ID!) {
  product(id: $id) {
    media(first: 250) { nodes { id alt ... on MediaImage { image { url } } } }
    mediaSources: metafield(namespace: "catalog_sync", key: "media_sources") { value }
  }
}`

const productSetMutation = `mutation productSet($input: ProductSetInput!) {
  productSet(synchronous: true, input: $input) {
    product { id legacyResourceId }
    userErrors { field message code }
  }
}`

const productUpdateMutation = `mutation productUpdate($input: ProductInput!) {
  productUpdate(input: $input) {
    product { id }
    userErrors { field message }
  }
}`

const variantsBulkCreateMutation = `mutation productVariantsBulkCreate($productId: ID!, $variants: [ProductVariantsBulkInput!]!) {
  productVariantsBulkCreate(productId: $productId, variants: $variants) {
    productVariants { id }
    userErrors { field message code }
  }
}`

const inventorySetMutation = `mutation inventorySetOnHandQuantities($input: InventorySetOnHandQuantitiesInput!) {
  inventorySetOnHandQuantities(input: $input) {
    inventoryAdjustmentGroup { id }
    userErrors { field message code }
  }
}`

const createMediaMutation = `mutation productCreateMedia($productId: ID!, $media: [CreateMediaInput!]!) {
  productCreateMedia(productId: $productId, media: $media) {
    media { id }
    mediaUserErrors { field message code }
  }
}`

const deleteMediaMutation = `mutation productDeleteMedia($productId: ID!, $mediaIds: [ID!]!) {
  productDeleteMedia(productId: $productId, mediaIds: $mediaIds) {
    deletedMediaIds
    mediaUserErrors { field message code }
  }
}`

const reorderMediaMutation = `mutation productReorderMedia($id: ID!, $moves: [MoveInput!]!) {
  productReorderMedia(id: $id, moves: $moves) {
    job { id }
    mediaUserErrors { field message code }
  }
}`

const metafieldsSetMutation = `mutation metafieldsSet($metafields: [MetafieldsSetInput!]!) {
  metafieldsSet(metafields: $metafields) {
    metafields { id }
    userErrors { field message code }
  }
}`
